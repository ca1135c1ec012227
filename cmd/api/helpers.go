package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/httpx/response"
)

// currentUserID resolves the authenticated caller, writing a 401 when the
// middleware did not attach usable claims.
func (s *Server) currentUserID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing auth claims")
		return bson.ObjectID{}, false
	}
	return id, true
}

// objectIDParam parses a chi URL parameter as an ObjectID, writing a 400 on
// malformed input.
func objectIDParam(w http.ResponseWriter, r *http.Request, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid id")
		return bson.ObjectID{}, false
	}
	return id, true
}

// writeStoreError maps store sentinels onto the HTTP error taxonomy.
// Anything unrecognized is a persistence failure: logged, surfaced as a
// generic 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, data.ErrEmptyMessage),
		errors.Is(err, data.ErrEmptyPost),
		errors.Is(err, data.ErrEmptyComment),
		errors.Is(err, data.ErrInvalidAttachment),
		errors.Is(err, data.ErrAlreadyLinked),
		errors.Is(err, data.ErrEmailTaken):
		response.BadRequest(w, err.Error())
	default:
		s.logger.Error("store operation failed", "error", err)
		response.InternalError(w, "Internal server error")
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}
