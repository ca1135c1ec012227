// Package notify persists notifications for social interactions and pushes
// them to online targets.
package notify

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/realtime"
)

// Store is the subset of the notifications store the service needs.
type Store interface {
	Create(ctx context.Context, targetID, senderID bson.ObjectID, kind data.NotificationKind, postID *bson.ObjectID) (*data.Notification, error)
}

// ProfileResolver resolves public profiles for the emitted payload.
type ProfileResolver interface {
	GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]data.Profile, error)
}

// Emitter is the delivery port. Implementations must be non-blocking and
// best-effort; the realtime gateway satisfies this.
type Emitter interface {
	EmitToUser(userID, event string, payload any)
}

// Service wires the three ports together.
type Service struct {
	store    Store
	profiles ProfileResolver
	emitter  Emitter
	logger   *slog.Logger
}

// NewService returns a notification fan-out service.
func NewService(store Store, profiles ProfileResolver, emitter Emitter, logger *slog.Logger) *Service {
	return &Service{store: store, profiles: profiles, emitter: emitter, logger: logger}
}

// Push records a notification for target and attempts real-time delivery.
// Self-triggered interactions (sender == target) are suppressed entirely.
//
// The interaction that triggered the push has already been persisted, so
// failures here are logged rather than surfaced: the caller's operation must
// not fail because its notification could not be written or delivered.
func (s *Service) Push(ctx context.Context, targetID, senderID bson.ObjectID, kind data.NotificationKind, postID *bson.ObjectID) {
	if targetID == senderID {
		return
	}

	notif, err := s.store.Create(ctx, targetID, senderID, kind, postID)
	if err != nil {
		s.logger.Error("failed to persist notification", "kind", kind, "error", err)
		return
	}

	view := data.NotificationView{Notification: *notif}
	profiles, err := s.profiles.GetProfiles(ctx, []bson.ObjectID{senderID})
	if err != nil {
		s.logger.Error("failed to resolve notification sender", "error", err)
	} else if p, ok := profiles[senderID]; ok {
		view.Sender = p
	}

	s.emitter.EmitToUser(targetID.Hex(), realtime.EventNewNotification, view)
}
