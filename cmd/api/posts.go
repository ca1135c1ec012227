package main

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/httpx/response"
)

type createPostRequest struct {
	Content    string           `json:"content"`
	Attachment *data.Attachment `json:"attachment"`
}

type commentRequest struct {
	Text string `json:"text"`
}

// postView resolves profiles for a single post and writes it.
func (s *Server) writePostView(w http.ResponseWriter, r *http.Request, status int, post *data.Post) {
	profiles, err := s.users.GetProfiles(r.Context(), post.ProfileIDs())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	response.JSON(w, status, data.BuildPostView(post, profiles))
}

// handleListPosts returns the feed, newest first, with author and commenter
// profiles resolved.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}

	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var ids []bson.ObjectID
	for _, p := range posts {
		ids = append(ids, p.ProfileIDs()...)
	}
	profiles, err := s.users.GetProfiles(r.Context(), ids)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	views := make([]data.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, data.BuildPostView(p, profiles))
	}

	response.OK(w, views)
}

// handleCreatePost creates a post authored by the caller.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	authorID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	post, err := s.posts.Create(r.Context(), authorID, req.Content, req.Attachment)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writePostView(w, r, http.StatusCreated, post)
}

// handleLikePost toggles the caller's like. A like (not an unlike) notifies
// the author; liking your own post notifies nobody.
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}

	post, liked, err := s.posts.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if liked {
		s.notify.Push(r.Context(), post.AuthorID, userID, data.NotificationLike, &post.ID)
	}

	s.writePostView(w, r, http.StatusOK, post)
}

// handleCommentPost appends a comment and notifies the author.
func (s *Server) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	post, _, err := s.posts.AddComment(r.Context(), postID, userID, req.Text)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.notify.Push(r.Context(), post.AuthorID, userID, data.NotificationComment, &post.ID)

	s.writePostView(w, r, http.StatusOK, post)
}

// handleReplyToComment appends a reply under a comment and notifies the
// comment's author.
func (s *Server) handleReplyToComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := objectIDParam(w, r, "commentId")
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	post, _, err := s.posts.AddReply(r.Context(), postID, commentID, userID, req.Text)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	// The reply notifies whoever wrote the parent comment.
	for _, c := range post.Comments {
		if c.ID == commentID {
			s.notify.Push(r.Context(), c.UserID, userID, data.NotificationReply, &post.ID)
			break
		}
	}

	s.writePostView(w, r, http.StatusOK, post)
}

// handleRepost records a repost. Idempotent per user: only the first repost
// notifies the author.
func (s *Server) handleRepost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}

	post, added, err := s.posts.Repost(r.Context(), postID, userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if added {
		s.notify.Push(r.Context(), post.AuthorID, userID, data.NotificationRepost, &post.ID)
	}

	s.writePostView(w, r, http.StatusOK, post)
}
