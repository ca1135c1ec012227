package main

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/httpx/response"
)

// handleListNotifications returns the caller's notifications, newest first,
// with sender profiles resolved.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	notifs, err := s.notifs.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	senderIDs := make([]bson.ObjectID, 0, len(notifs))
	for _, n := range notifs {
		senderIDs = append(senderIDs, n.SenderID)
	}

	profiles, err := s.users.GetProfiles(r.Context(), senderIDs)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	views := make([]data.NotificationView, 0, len(notifs))
	for _, n := range notifs {
		views = append(views, data.NotificationView{
			Notification: *n,
			Sender:       profiles[n.SenderID],
		})
	}

	response.OK(w, views)
}

type markAllReadResponse struct {
	Msg     string `json:"msg"`
	Updated int64  `json:"updated"`
}

// handleMarkAllRead flips every unread notification to read. Re-invoking with
// nothing unread is a no-op success.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	updated, err := s.notifs.MarkAllRead(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, markAllReadResponse{Msg: "All notifications marked as read", Updated: updated})
}
