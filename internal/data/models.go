package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AttachmentKind tags the media type of an attachment.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentDocument AttachmentKind = "document"
)

// Valid reports whether k is a known attachment kind.
func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentImage, AttachmentVideo, AttachmentDocument:
		return true
	}
	return false
}

// Attachment is an already-hosted media reference carried by a message or post.
type Attachment struct {
	Kind AttachmentKind `bson:"kind" json:"kind"`
	URL  string         `bson:"url" json:"url"`
	Name string         `bson:"name,omitempty" json:"name,omitempty"`
}

// Experience is a work history entry embedded in a user. A nil EndDate means
// the position is current.
type Experience struct {
	Title       string     `bson:"title" json:"title"`
	Company     string     `bson:"company" json:"company"`
	StartDate   time.Time  `bson:"start_date" json:"startDate"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

// Education is a schooling entry embedded in a user. A nil EndDate means the
// program is ongoing.
type Education struct {
	School    string     `bson:"school" json:"school"`
	Degree    string     `bson:"degree" json:"degree"`
	StartDate time.Time  `bson:"start_date" json:"startDate"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
}

// Settings are a user's preference toggles.
type Settings struct {
	EmailNotifications   bool `bson:"email_notifications" json:"emailNotifications"`
	ProfileVisibility    bool `bson:"profile_visibility" json:"profileVisibility"`
	MessageNotifications bool `bson:"message_notifications" json:"messageNotifications"`
	ActivityStatus       bool `bson:"activity_status" json:"activityStatus"`
	AllowSearchEngines   bool `bson:"allow_search_engines" json:"allowSearchEngines"`
	ConnectionRequests   bool `bson:"connection_requests" json:"connectionRequests"`
	JobAlerts            bool `bson:"job_alerts" json:"jobAlerts"`
}

// DefaultSettings returns the toggles a new account starts with: everything
// enabled.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications:   true,
		ProfileVisibility:    true,
		MessageNotifications: true,
		ActivityStatus:       true,
		AllowSearchEngines:   true,
		ConnectionRequests:   true,
		JobAlerts:            true,
	}
}

// User maps to the users collection.
type User struct {
	ID                 bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name               string          `bson:"name" json:"name"`
	Email              string          `bson:"email" json:"email"`
	Password           string          `bson:"password" json:"-"`
	Title              string          `bson:"title,omitempty" json:"title,omitempty"`
	Location           string          `bson:"location,omitempty" json:"location,omitempty"`
	About              string          `bson:"about,omitempty" json:"about,omitempty"`
	Skills             []string        `bson:"skills,omitempty" json:"skills,omitempty"`
	Experience         []Experience    `bson:"experience,omitempty" json:"experience,omitempty"`
	Education          []Education     `bson:"education,omitempty" json:"education,omitempty"`
	ProfileImage       string          `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	BackgroundImage    string          `bson:"background_image,omitempty" json:"backgroundImage,omitempty"`
	Connections        []bson.ObjectID `bson:"connections" json:"connections"`
	ConnectionRequests []bson.ObjectID `bson:"connection_requests" json:"connectionRequests"`
	ProfileViews       int             `bson:"profile_views" json:"profileViews"`
	Settings           Settings        `bson:"settings" json:"settings"`
	CreatedAt          time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updated_at" json:"updatedAt"`
}

// Profile is the public subset of a user resolved into views (conversation
// participants, notification senders, post authors).
type Profile struct {
	ID           bson.ObjectID `bson:"_id" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	Title        string        `bson:"title,omitempty" json:"title,omitempty"`
	ProfileImage string        `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Title:        u.Title,
		ProfileImage: u.ProfileImage,
	}
}

// Message maps to the messages collection. A message is immutable once
// created and belongs to exactly one conversation.
type Message struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   bson.ObjectID `bson:"sender_id" json:"senderId"`
	ReceiverID bson.ObjectID `bson:"receiver_id" json:"receiverId"`
	Text       string        `bson:"text,omitempty" json:"message,omitempty"`
	Attachment *Attachment   `bson:"attachment,omitempty" json:"attachment,omitempty"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
}

// Conversation maps to the conversations collection: an unordered participant
// pair plus the append-only list of message ids in chronological order.
type Conversation struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []bson.ObjectID `bson:"participants" json:"participants"`
	MessageIDs   []bson.ObjectID `bson:"messages" json:"messages"`
	CreatedAt    time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updatedAt"`
}

// ConversationView is a conversation with the other participant resolved,
// as returned by the conversations listing.
type ConversationView struct {
	ID          bson.ObjectID   `json:"id"`
	Participant Profile         `json:"participant"`
	MessageIDs  []bson.ObjectID `json:"messages"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NotificationKind enumerates the social interactions that produce a
// notification.
type NotificationKind string

const (
	NotificationLike               NotificationKind = "like"
	NotificationComment            NotificationKind = "comment"
	NotificationReply              NotificationKind = "reply"
	NotificationRepost             NotificationKind = "repost"
	NotificationConnectionRequest  NotificationKind = "connection_request"
	NotificationConnectionAccepted NotificationKind = "connection_accepted"
)

// Valid reports whether k is a known notification kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationReply,
		NotificationRepost, NotificationConnectionRequest, NotificationConnectionAccepted:
		return true
	}
	return false
}

// Notification maps to the notifications collection. The read flag only ever
// flips false to true.
type Notification struct {
	ID        bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID    `bson:"user" json:"userId"`
	SenderID  bson.ObjectID    `bson:"sender" json:"senderId"`
	Kind      NotificationKind `bson:"type" json:"type"`
	PostID    *bson.ObjectID   `bson:"post,omitempty" json:"postId,omitempty"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"timestamp" json:"timestamp"`
}

// NotificationView is a notification with the triggering sender resolved.
type NotificationView struct {
	Notification
	Sender Profile `json:"sender"`
}

// Reply is a nested response to a comment.
type Reply struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user" json:"userId"`
	Text      string        `bson:"text" json:"text"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
}

// Comment is embedded in a post.
type Comment struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user" json:"userId"`
	Text      string        `bson:"text" json:"text"`
	Replies   []Reply       `bson:"replies,omitempty" json:"replies,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
}

// Post maps to the posts collection.
type Post struct {
	ID         bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID   bson.ObjectID   `bson:"author" json:"authorId"`
	Content    string          `bson:"content" json:"content"`
	Attachment *Attachment     `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Likes      []bson.ObjectID `bson:"likes" json:"likes"`
	Comments   []Comment       `bson:"comments" json:"comments"`
	Reposts    []bson.ObjectID `bson:"reposts" json:"reposts"`
	CreatedAt  time.Time       `bson:"timestamp" json:"timestamp"`
}
