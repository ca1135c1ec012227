package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PostsStore persists posts and their embedded comments.
type PostsStore struct {
	coll *mongo.Collection
}

// NewPostsStore returns a PostsStore using the given collection.
func NewPostsStore(coll *mongo.Collection) *PostsStore {
	return &PostsStore{coll: coll}
}

// Create inserts a new post.
func (p *PostsStore) Create(ctx context.Context, authorID bson.ObjectID, content string, attachment *Attachment) (*Post, error) {
	if content == "" {
		return nil, ErrEmptyPost
	}
	if attachment != nil {
		if !attachment.Kind.Valid() || attachment.URL == "" {
			return nil, ErrInvalidAttachment
		}
	}

	post := &Post{
		AuthorID:   authorID,
		Content:    content,
		Attachment: attachment,
		Likes:      []bson.ObjectID{},
		Comments:   []Comment{},
		Reposts:    []bson.ObjectID{},
		CreatedAt:  time.Now(),
	}

	result, err := p.coll.InsertOne(ctx, post)
	if err != nil {
		return nil, err
	}

	post.ID = result.InsertedID.(bson.ObjectID)
	return post, nil
}

// List returns all posts, newest first.
func (p *PostsStore) List(ctx context.Context) ([]*Post, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	cursor, err := p.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetByID finds a post by id.
func (p *PostsStore) GetByID(ctx context.Context, id bson.ObjectID) (*Post, error) {
	var post Post
	err := p.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// ToggleLike likes the post when the user has not liked it yet and unlikes it
// otherwise. The returned bool reports whether the post is now liked.
func (p *PostsStore) ToggleLike(ctx context.Context, postID, userID bson.ObjectID) (*Post, bool, error) {
	post, err := p.GetByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}

	var update bson.M
	liked := !containsID(post.Likes, userID)
	if liked {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	} else {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	}

	updated, err := p.applyUpdate(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return nil, false, err
	}
	return updated, liked, nil
}

// AddComment appends a comment and returns the updated post together with the
// new comment.
func (p *PostsStore) AddComment(ctx context.Context, postID, userID bson.ObjectID, text string) (*Post, *Comment, error) {
	if text == "" {
		return nil, nil, ErrEmptyComment
	}

	comment := Comment{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	updated, err := p.applyUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}},
	)
	if err != nil {
		return nil, nil, err
	}
	return updated, &comment, nil
}

// AddReply appends a reply to an existing comment and returns the updated
// post together with the new reply. ErrNotFound covers both a missing post
// and a missing comment.
func (p *PostsStore) AddReply(ctx context.Context, postID, commentID, userID bson.ObjectID, text string) (*Post, *Reply, error) {
	if text == "" {
		return nil, nil, ErrEmptyComment
	}

	reply := Reply{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	updated, err := p.applyUpdate(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{"$push": bson.M{"comments.$.replies": reply}},
	)
	if err != nil {
		return nil, nil, err
	}
	return updated, &reply, nil
}

// Repost records userID as having reposted the post. Idempotent per user: the
// returned bool is false when the user had already reposted.
func (p *PostsStore) Repost(ctx context.Context, postID, userID bson.ObjectID) (*Post, bool, error) {
	post, err := p.GetByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}

	added := !containsID(post.Reposts, userID)
	updated, err := p.applyUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"reposts": userID}},
	)
	if err != nil {
		return nil, false, err
	}
	return updated, added, nil
}

// applyUpdate runs a FindOneAndUpdate returning the post-update document.
func (p *PostsStore) applyUpdate(ctx context.Context, filter, update bson.M) (*Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post Post
	err := p.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}
