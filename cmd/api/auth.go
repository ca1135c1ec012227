package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/httpx/response"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleRegister creates a user and returns a signed token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.BadRequest(w, "name, email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		response.InternalError(w, "Internal server error")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Name, req.Email, hashed)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		response.InternalError(w, "Internal server error")
		return
	}

	response.Created(w, tokenResponse{Token: token, UserID: user.ID.Hex(), ExpiresAt: expiresAt})
}

// handleLogin authenticates a user and returns a signed token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		response.InternalError(w, "Internal server error")
		return
	}

	response.OK(w, tokenResponse{Token: token, UserID: user.ID.Hex(), ExpiresAt: expiresAt})
}
