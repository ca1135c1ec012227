package main

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/data"
)

// UsersStore is the user persistence surface the handlers need.
type UsersStore interface {
	CreateUser(ctx context.Context, name, email, hashedPassword string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error)
	UserExists(ctx context.Context, id bson.ObjectID) (bool, error)
	GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]data.Profile, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, params data.UpdateProfileParams) (*data.User, error)
	GetSettings(ctx context.Context, id bson.ObjectID) (*data.Settings, error)
	UpdateSettings(ctx context.Context, id bson.ObjectID, params data.UpdateSettingsParams) (*data.Settings, error)
	SearchUsers(ctx context.Context, query string, exclude bson.ObjectID, limit int64) ([]data.Profile, error)
	AddConnectionRequest(ctx context.Context, fromID, toID bson.ObjectID) error
	ListConnectionRequests(ctx context.Context, id bson.ObjectID) ([]data.Profile, error)
	AcceptConnection(ctx context.Context, userID, fromID bson.ObjectID) error
	RejectConnection(ctx context.Context, userID, fromID bson.ObjectID) error
	ListConnections(ctx context.Context, id bson.ObjectID) ([]data.Profile, error)
}

// MessagesStore is the conversation/message persistence surface.
type MessagesStore interface {
	SaveMessage(ctx context.Context, senderID, receiverID bson.ObjectID, text string, attachment *data.Attachment) (*data.Message, error)
	MessagesBetween(ctx context.Context, a, b bson.ObjectID) ([]*data.Message, error)
	ConversationsForUser(ctx context.Context, userID bson.ObjectID) ([]*data.Conversation, error)
}

// NotificationsStore is the notification read/ack surface. Creation goes
// through the Notifier.
type NotificationsStore interface {
	ListForUser(ctx context.Context, userID bson.ObjectID) ([]*data.Notification, error)
	MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error)
}

// PostsStore is the post persistence surface.
type PostsStore interface {
	Create(ctx context.Context, authorID bson.ObjectID, content string, attachment *data.Attachment) (*data.Post, error)
	List(ctx context.Context) ([]*data.Post, error)
	ToggleLike(ctx context.Context, postID, userID bson.ObjectID) (*data.Post, bool, error)
	AddComment(ctx context.Context, postID, userID bson.ObjectID, text string) (*data.Post, *data.Comment, error)
	AddReply(ctx context.Context, postID, commentID, userID bson.ObjectID, text string) (*data.Post, *data.Reply, error)
	Repost(ctx context.Context, postID, userID bson.ObjectID) (*data.Post, bool, error)
}

// Notifier is the notification fan-out port; it never fails the caller.
type Notifier interface {
	Push(ctx context.Context, targetID, senderID bson.ObjectID, kind data.NotificationKind, postID *bson.ObjectID)
}

// Emitter is the real-time delivery port; best-effort, non-blocking.
type Emitter interface {
	EmitToUser(userID, event string, payload any)
}

// Server holds the stores and ports the HTTP handlers operate on.
type Server struct {
	users   UsersStore
	msgs    MessagesStore
	notifs  NotificationsStore
	posts   PostsStore
	notify  Notifier
	emitter Emitter
	jwt     *auth.JWTManager
	logger  *slog.Logger
}

// newServer returns a ready-to-use Server wired with stores and ports.
func newServer(users UsersStore, msgs MessagesStore, notifs NotificationsStore, posts PostsStore, notifier Notifier, emitter Emitter, jwtMgr *auth.JWTManager, logger *slog.Logger) *Server {
	return &Server{
		users:   users,
		msgs:    msgs,
		notifs:  notifs,
		posts:   posts,
		notify:  notifier,
		emitter: emitter,
		jwt:     jwtMgr,
		logger:  logger,
	}
}
