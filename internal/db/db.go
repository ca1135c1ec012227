// Package db manages MongoDB connections and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, can be reused)
	client *mongo.Client

	// db is the application database; collections are accessed through it
	db *mongo.Database
}

// New connects to MongoDB and returns a Client.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping with its own timeout; this is the actual connection test
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// ConversationsCollection returns the conversations collection.
func (c *Client) ConversationsCollection() *mongo.Collection {
	return c.db.Collection("conversations")
}

// MessagesCollection returns the messages collection.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection("messages")
}

// NotificationsCollection returns the notifications collection.
func (c *Client) NotificationsCollection() *mongo.Collection {
	return c.db.Collection("notifications")
}

// PostsCollection returns the posts collection.
func (c *Client) PostsCollection() *mongo.Collection {
	return c.db.Collection("posts")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// Unique index on email: no two users can share an address. Used by
	// GetUserByEmail and guards duplicate registration.
	usersIndexModel := mongo.IndexModel{
		Keys:    map[string]int{"email": 1},
		Options: options.Index().SetUnique(true),
	}

	_, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndexModel)
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// Conversations are looked up by their participant pair on every send.
	convIndexModel := mongo.IndexModel{
		Keys: map[string]int{"participants": 1},
	}

	_, err = c.ConversationsCollection().Indexes().CreateOne(ctx, convIndexModel)
	if err != nil {
		return fmt.Errorf("failed to create conversations index: %w", err)
	}

	// Messages are fetched through the conversation's id list; the
	// sender/receiver index keeps ad-hoc queries cheap.
	msgIndexModel := mongo.IndexModel{
		Keys: map[string]int{"sender_id": 1, "receiver_id": 1, "created_at": -1},
	}

	_, err = c.MessagesCollection().Indexes().CreateOne(ctx, msgIndexModel)
	if err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}

	// Notifications are read newest-first per target user, and mark-all-read
	// filters on the read flag.
	notifIndexes := []mongo.IndexModel{
		{Keys: map[string]int{"user": 1, "timestamp": -1}},
		{Keys: map[string]int{"user": 1, "read": 1}},
	}

	_, err = c.NotificationsCollection().Indexes().CreateMany(ctx, notifIndexes)
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	// Feed reads sort all posts by timestamp.
	postsIndexModel := mongo.IndexModel{
		Keys: map[string]int{"timestamp": -1},
	}

	_, err = c.PostsCollection().Indexes().CreateOne(ctx, postsIndexModel)
	if err != nil {
		return fmt.Errorf("failed to create posts index: %w", err)
	}

	return nil
}
