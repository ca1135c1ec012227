package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ReplyView is a reply with its user resolved.
type ReplyView struct {
	ID        bson.ObjectID `json:"id"`
	User      Profile       `json:"user"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
}

// CommentView is a comment with its user (and reply users) resolved.
type CommentView struct {
	ID        bson.ObjectID `json:"id"`
	User      Profile       `json:"user"`
	Text      string        `json:"text"`
	Replies   []ReplyView   `json:"replies,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PostView is a post with author and commenter profiles resolved.
type PostView struct {
	ID         bson.ObjectID   `json:"id"`
	Author     Profile         `json:"author"`
	Content    string          `json:"content"`
	Attachment *Attachment     `json:"attachment,omitempty"`
	Likes      []bson.ObjectID `json:"likes"`
	Comments   []CommentView   `json:"comments"`
	Reposts    []bson.ObjectID `json:"reposts"`
	CreatedAt  time.Time       `json:"timestamp"`
}

// ProfileIDs returns every user id a PostView needs resolved: the author plus
// all comment and reply users.
func (p *Post) ProfileIDs() []bson.ObjectID {
	ids := []bson.ObjectID{p.AuthorID}
	for _, c := range p.Comments {
		ids = append(ids, c.UserID)
		for _, r := range c.Replies {
			ids = append(ids, r.UserID)
		}
	}
	return ids
}

// BuildPostView assembles a PostView from a post and a profile lookup map.
// Ids missing from the map yield zero-value profiles rather than errors.
func BuildPostView(post *Post, profiles map[bson.ObjectID]Profile) PostView {
	view := PostView{
		ID:         post.ID,
		Author:     profiles[post.AuthorID],
		Content:    post.Content,
		Attachment: post.Attachment,
		Likes:      post.Likes,
		Comments:   make([]CommentView, 0, len(post.Comments)),
		Reposts:    post.Reposts,
		CreatedAt:  post.CreatedAt,
	}

	for _, c := range post.Comments {
		cv := CommentView{
			ID:        c.ID,
			User:      profiles[c.UserID],
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
		for _, r := range c.Replies {
			cv.Replies = append(cv.Replies, ReplyView{
				ID:        r.ID,
				User:      profiles[r.UserID],
				Text:      r.Text,
				CreatedAt: r.CreatedAt,
			})
		}
		view.Comments = append(view.Comments, cv)
	}

	return view
}

// OtherParticipant returns the participant that is not userID. For the
// degenerate self-conversation case it returns userID itself.
func (c *Conversation) OtherParticipant(userID bson.ObjectID) bson.ObjectID {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return userID
}
