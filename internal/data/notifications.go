package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotificationsStore persists notification records.
type NotificationsStore struct {
	coll *mongo.Collection
}

// NewNotificationsStore returns a NotificationsStore using the given
// collection.
func NewNotificationsStore(coll *mongo.Collection) *NotificationsStore {
	return &NotificationsStore{coll: coll}
}

// Create inserts an unread notification for target, triggered by sender.
// postID is nil for connection events.
func (n *NotificationsStore) Create(ctx context.Context, targetID, senderID bson.ObjectID, kind NotificationKind, postID *bson.ObjectID) (*Notification, error) {
	notif := &Notification{
		UserID:    targetID,
		SenderID:  senderID,
		Kind:      kind,
		PostID:    postID,
		Read:      false,
		CreatedAt: time.Now(),
	}

	result, err := n.coll.InsertOne(ctx, notif)
	if err != nil {
		return nil, err
	}

	notif.ID = result.InsertedID.(bson.ObjectID)
	return notif, nil
}

// ListForUser returns all notifications for a user, newest first.
func (n *NotificationsStore) ListForUser(ctx context.Context, userID bson.ObjectID) ([]*Notification, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	cursor, err := n.coll.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifs []*Notification
	if err = cursor.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

// MarkAllRead flips every unread notification for a user to read and returns
// the number of records that changed. Calling it with nothing unread is a
// no-op success.
func (n *NotificationsStore) MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error) {
	result, err := n.coll.UpdateMany(ctx,
		bson.M{"user": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
