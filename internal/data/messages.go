package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesStore persists conversations and the messages they reference.
type MessagesStore struct {
	convs *mongo.Collection
	msgs  *mongo.Collection
}

// NewMessagesStore returns a MessagesStore over the conversations and
// messages collections.
func NewMessagesStore(convs, msgs *mongo.Collection) *MessagesStore {
	return &MessagesStore{convs: convs, msgs: msgs}
}

// pairFilter matches the single conversation for an unordered participant
// pair.
func pairFilter(a, b bson.ObjectID) bson.M {
	return bson.M{"participants": bson.M{"$all": bson.A{a, b}}}
}

// SaveMessage validates and persists a message between sender and receiver,
// creating the pair's conversation on first contact and appending the message
// id to its list.
//
// The message insert and the conversation update are issued concurrently and
// both must succeed. There is no multi-document transaction: an orphaned
// message (inserted but never appended) is invisible to readers, which fetch
// through the conversation's id list, so the gap is reconciled on read.
func (m *MessagesStore) SaveMessage(ctx context.Context, senderID, receiverID bson.ObjectID, text string, attachment *Attachment) (*Message, error) {
	if text == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}
	if attachment != nil {
		if !attachment.Kind.Valid() || attachment.URL == "" {
			return nil, ErrInvalidAttachment
		}
	}

	conv, err := m.findConversation(ctx, senderID, receiverID)
	if err == ErrNotFound {
		conv, err = m.createConversation(ctx, senderID, receiverID)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &Message{
		// Pre-generate the id so the insert and the list append can run
		// concurrently.
		ID:         bson.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: attachment,
		CreatedAt:  now,
	}

	errc := make(chan error, 2)
	go func() {
		_, err := m.msgs.InsertOne(ctx, msg)
		errc <- err
	}()
	go func() {
		_, err := m.convs.UpdateOne(ctx,
			bson.M{"_id": conv.ID},
			bson.M{
				"$push": bson.M{"messages": msg.ID},
				"$set":  bson.M{"updated_at": now},
			},
		)
		errc <- err
	}()

	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil {
			return nil, err
		}
	}

	return msg, nil
}

// MessagesBetween returns every message of the pair's conversation in append
// order. A pair with no conversation yields an empty slice, not an error.
func (m *MessagesStore) MessagesBetween(ctx context.Context, a, b bson.ObjectID) ([]*Message, error) {
	conv, err := m.findConversation(ctx, a, b)
	if err == ErrNotFound {
		return []*Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(conv.MessageIDs) == 0 {
		return []*Message{}, nil
	}

	cursor, err := m.msgs.Find(ctx, bson.M{"_id": bson.M{"$in": conv.MessageIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []*Message
	if err = cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	// $in returns documents in arbitrary order; reorder by the
	// conversation's append-only id list, which is the chronological order.
	byID := make(map[bson.ObjectID]*Message, len(found))
	for _, msg := range found {
		byID[msg.ID] = msg
	}

	ordered := make([]*Message, 0, len(found))
	for _, id := range conv.MessageIDs {
		if msg, ok := byID[id]; ok {
			ordered = append(ordered, msg)
		}
	}
	return ordered, nil
}

// ConversationsForUser returns every conversation the user participates in,
// most recently active first.
func (m *MessagesStore) ConversationsForUser(ctx context.Context, userID bson.ObjectID) ([]*Conversation, error) {
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cursor, err := m.convs.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*Conversation
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (m *MessagesStore) findConversation(ctx context.Context, a, b bson.ObjectID) (*Conversation, error) {
	var conv Conversation
	err := m.convs.FindOne(ctx, pairFilter(a, b)).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (m *MessagesStore) createConversation(ctx context.Context, a, b bson.ObjectID) (*Conversation, error) {
	now := time.Now()
	conv := &Conversation{
		Participants: []bson.ObjectID{a, b},
		MessageIDs:   []bson.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := m.convs.InsertOne(ctx, conv)
	if err != nil {
		return nil, err
	}

	conv.ID = result.InsertedID.(bson.ObjectID)
	return conv, nil
}
