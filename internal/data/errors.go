package data

import "errors"

// Sentinel errors returned by the stores; handlers map them to HTTP statuses.
var (
	// ErrNotFound is returned when a user, post, comment or conversation
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering with an email that
	// already exists.
	ErrEmailTaken = errors.New("user already exists")

	// ErrEmptyMessage is returned when a message carries neither text nor
	// an attachment.
	ErrEmptyMessage = errors.New("message content or file is required")

	// ErrInvalidAttachment is returned when an attachment carries an
	// unknown kind or no URL.
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrEmptyPost is returned when creating a post with no content.
	ErrEmptyPost = errors.New("post content is required")

	// ErrEmptyComment is returned when a comment or reply has no text.
	ErrEmptyComment = errors.New("comment text is required")

	// ErrAlreadyLinked is returned when a connection request targets a
	// user who already has a pending request from, or connection to, the
	// sender.
	ErrAlreadyLinked = errors.New("request already sent or already connected")
)
