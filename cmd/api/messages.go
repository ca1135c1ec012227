package main

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/httpx/response"
	"github.com/olatoyosi/prolink/internal/realtime"
)

type sendMessageRequest struct {
	Message    string           `json:"message"`
	Attachment *data.Attachment `json:"attachment"`
}

// handleSendMessage persists a message to the receiver and pushes it to their
// live connection when online. Delivery is best-effort: the persisted record
// is the source of truth and offline receivers see it on their next fetch.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	receiverID, ok := objectIDParam(w, r, "receiverId")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	exists, err := s.users.UserExists(r.Context(), receiverID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !exists {
		response.NotFound(w, "recipient not found")
		return
	}

	msg, err := s.msgs.SaveMessage(r.Context(), senderID, receiverID, req.Message, req.Attachment)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	// Persisted; now the nice-to-have real-time push.
	s.emitter.EmitToUser(receiverID.Hex(), realtime.EventNewMessage, msg)

	response.Created(w, msg)
}

// handleGetMessages returns the conversation with the other user in append
// order; an empty list when the pair has never talked.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	otherID, ok := objectIDParam(w, r, "otherUserId")
	if !ok {
		return
	}

	msgs, err := s.msgs.MessagesBetween(r.Context(), userID, otherID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, msgs)
}

// handleGetConversations lists the caller's conversations with the other
// participant's public profile resolved.
func (s *Server) handleGetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	convs, err := s.msgs.ConversationsForUser(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	otherIDs := make([]bson.ObjectID, 0, len(convs))
	for _, c := range convs {
		otherIDs = append(otherIDs, c.OtherParticipant(userID))
	}

	profiles, err := s.users.GetProfiles(r.Context(), otherIDs)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	views := make([]data.ConversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, data.ConversationView{
			ID:          c.ID,
			Participant: profiles[c.OtherParticipant(userID)],
			MessageIDs:  c.MessageIDs,
			UpdatedAt:   c.UpdatedAt,
		})
	}

	response.OK(w, views)
}
