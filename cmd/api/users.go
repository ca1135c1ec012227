package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/httpx/response"
	"github.com/olatoyosi/prolink/internal/normalize"
)

// profileResponse is a user document with connections resolved to public
// profiles. The shadow field overrides the raw id list in the JSON output.
type profileResponse struct {
	*data.User
	Connections []data.Profile `json:"connections"`
}

// handleGetProfile returns a user's profile by email, connections resolved.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	connections, err := s.users.ListConnections(r.Context(), user.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, profileResponse{User: user, Connections: connections})
}

type updateProfileRequest struct {
	Name            *string           `json:"name"`
	Title           *string           `json:"title"`
	Location        *string           `json:"location"`
	About           *string           `json:"about"`
	Skills          []string          `json:"skills"`
	Experience      []data.Experience `json:"experience"`
	Education       []data.Education  `json:"education"`
	ProfileImage    *string           `json:"profileImage"`
	BackgroundImage *string           `json:"backgroundImage"`
}

// handleUpdateProfile updates the caller's own profile. Absent fields are
// left untouched.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), userID, data.UpdateProfileParams{
		Name:            req.Name,
		Title:           req.Title,
		Location:        req.Location,
		About:           req.About,
		Skills:          req.Skills,
		Experience:      req.Experience,
		Education:       req.Education,
		ProfileImage:    req.ProfileImage,
		BackgroundImage: req.BackgroundImage,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, user)
}

type updateSettingsRequest struct {
	EmailNotifications   *bool `json:"emailNotifications"`
	ProfileVisibility    *bool `json:"profileVisibility"`
	MessageNotifications *bool `json:"messageNotifications"`
	ActivityStatus       *bool `json:"activityStatus"`
	AllowSearchEngines   *bool `json:"allowSearchEngines"`
	ConnectionRequests   *bool `json:"connectionRequests"`
	JobAlerts            *bool `json:"jobAlerts"`
}

// handleGetSettings returns the caller's preference toggles.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	settings, err := s.users.GetSettings(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, settings)
}

// handleUpdateSettings merges the provided toggles into the caller's
// settings. Absent fields are left untouched.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	settings, err := s.users.UpdateSettings(r.Context(), userID, data.UpdateSettingsParams{
		EmailNotifications:   req.EmailNotifications,
		ProfileVisibility:    req.ProfileVisibility,
		MessageNotifications: req.MessageNotifications,
		ActivityStatus:       req.ActivityStatus,
		AllowSearchEngines:   req.AllowSearchEngines,
		ConnectionRequests:   req.ConnectionRequests,
		JobAlerts:            req.JobAlerts,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, settings)
}

// handleSearchUsers finds users by name or title, excluding the caller.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	query := normalize.Query(r.URL.Query().Get("q"))
	if query == "" {
		response.OK(w, []data.Profile{})
		return
	}

	profiles, err := s.users.SearchUsers(r.Context(), query, userID, 20)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, profiles)
}

// handleConnect sends a connection request and notifies the target.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	targetID, ok := objectIDParam(w, r, "userId")
	if !ok {
		return
	}

	if err := s.users.AddConnectionRequest(r.Context(), userID, targetID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.notify.Push(r.Context(), targetID, userID, data.NotificationConnectionRequest, nil)

	response.OK(w, map[string]string{"msg": "Connection request sent"})
}

// handleConnectionRequests lists the caller's pending incoming requests.
func (s *Server) handleConnectionRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	profiles, err := s.users.ListConnectionRequests(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, profiles)
}

// handleAcceptConnection accepts a pending request: both users become
// connected and the original requester is notified.
func (s *Server) handleAcceptConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	fromID, ok := objectIDParam(w, r, "userId")
	if !ok {
		return
	}

	if err := s.users.AcceptConnection(r.Context(), userID, fromID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.notify.Push(r.Context(), fromID, userID, data.NotificationConnectionAccepted, nil)

	response.OK(w, map[string]string{"msg": "Connection accepted"})
}

// handleRejectConnection drops a pending request. Nobody is notified.
func (s *Server) handleRejectConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	fromID, ok := objectIDParam(w, r, "userId")
	if !ok {
		return
	}

	if err := s.users.RejectConnection(r.Context(), userID, fromID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, map[string]string{"msg": "Connection rejected"})
}

// handleConnections lists the caller's connections.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	profiles, err := s.users.ListConnections(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response.OK(w, profiles)
}
