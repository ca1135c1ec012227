package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/middleware"
	"github.com/olatoyosi/prolink/internal/normalize"
	"github.com/olatoyosi/prolink/internal/realtime"
)

// fakeUsers provides the subset of UsersStore behavior the handlers need.
type fakeUsers struct {
	exists   bool
	user     *data.User
	settings data.Settings
}

func (f *fakeUsers) CreateUser(ctx context.Context, name, email, hashedPassword string) (*data.User, error) {
	return &data.User{ID: bson.NewObjectID(), Name: name, Email: normalize.Email(email), Password: hashedPassword}, nil
}
func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*data.User, error) {
	if f.user == nil {
		return nil, data.ErrNotFound
	}
	return f.user, nil
}
func (f *fakeUsers) GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error) {
	if f.user == nil {
		return nil, data.ErrNotFound
	}
	return f.user, nil
}
func (f *fakeUsers) UserExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	return f.exists, nil
}
func (f *fakeUsers) GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]data.Profile, error) {
	return map[bson.ObjectID]data.Profile{}, nil
}
func (f *fakeUsers) UpdateProfile(ctx context.Context, id bson.ObjectID, params data.UpdateProfileParams) (*data.User, error) {
	u := &data.User{ID: id}
	if params.Name != nil {
		u.Name = *params.Name
	}
	return u, nil
}
func (f *fakeUsers) GetSettings(ctx context.Context, id bson.ObjectID) (*data.Settings, error) {
	s := f.settings
	return &s, nil
}
func (f *fakeUsers) UpdateSettings(ctx context.Context, id bson.ObjectID, params data.UpdateSettingsParams) (*data.Settings, error) {
	if params.EmailNotifications != nil {
		f.settings.EmailNotifications = *params.EmailNotifications
	}
	if params.ProfileVisibility != nil {
		f.settings.ProfileVisibility = *params.ProfileVisibility
	}
	if params.MessageNotifications != nil {
		f.settings.MessageNotifications = *params.MessageNotifications
	}
	if params.ActivityStatus != nil {
		f.settings.ActivityStatus = *params.ActivityStatus
	}
	if params.AllowSearchEngines != nil {
		f.settings.AllowSearchEngines = *params.AllowSearchEngines
	}
	if params.ConnectionRequests != nil {
		f.settings.ConnectionRequests = *params.ConnectionRequests
	}
	if params.JobAlerts != nil {
		f.settings.JobAlerts = *params.JobAlerts
	}
	s := f.settings
	return &s, nil
}
func (f *fakeUsers) SearchUsers(ctx context.Context, query string, exclude bson.ObjectID, limit int64) ([]data.Profile, error) {
	return []data.Profile{}, nil
}
func (f *fakeUsers) AddConnectionRequest(ctx context.Context, fromID, toID bson.ObjectID) error {
	return nil
}
func (f *fakeUsers) ListConnectionRequests(ctx context.Context, id bson.ObjectID) ([]data.Profile, error) {
	return []data.Profile{}, nil
}
func (f *fakeUsers) AcceptConnection(ctx context.Context, userID, fromID bson.ObjectID) error {
	return nil
}
func (f *fakeUsers) RejectConnection(ctx context.Context, userID, fromID bson.ObjectID) error {
	return nil
}
func (f *fakeUsers) ListConnections(ctx context.Context, id bson.ObjectID) ([]data.Profile, error) {
	return []data.Profile{}, nil
}

// fakeMsgs records saved messages.
type fakeMsgs struct {
	saved []*data.Message
}

func (f *fakeMsgs) SaveMessage(ctx context.Context, senderID, receiverID bson.ObjectID, text string, attachment *data.Attachment) (*data.Message, error) {
	if text == "" && attachment == nil {
		return nil, data.ErrEmptyMessage
	}
	msg := &data.Message{
		ID:         bson.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: attachment,
		CreatedAt:  time.Now(),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}
func (f *fakeMsgs) MessagesBetween(ctx context.Context, a, b bson.ObjectID) ([]*data.Message, error) {
	return []*data.Message{}, nil
}
func (f *fakeMsgs) ConversationsForUser(ctx context.Context, userID bson.ObjectID) ([]*data.Conversation, error) {
	return []*data.Conversation{}, nil
}

// fakeNotifs holds canned notifications.
type fakeNotifs struct {
	list    []*data.Notification
	updated int64
}

func (f *fakeNotifs) ListForUser(ctx context.Context, userID bson.ObjectID) ([]*data.Notification, error) {
	return f.list, nil
}
func (f *fakeNotifs) MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return f.updated, nil
}

// fakePosts serves one post and scripted toggle results.
type fakePosts struct {
	post *data.Post
	// ToggleLike/Repost pop results from these so a test can script both
	// halves of a toggle
	likeResults   []bool
	repostResults []bool
}

func (f *fakePosts) Create(ctx context.Context, authorID bson.ObjectID, content string, attachment *data.Attachment) (*data.Post, error) {
	if content == "" {
		return nil, data.ErrEmptyPost
	}
	return &data.Post{ID: bson.NewObjectID(), AuthorID: authorID, Content: content, Attachment: attachment}, nil
}
func (f *fakePosts) List(ctx context.Context) ([]*data.Post, error) {
	if f.post == nil {
		return []*data.Post{}, nil
	}
	return []*data.Post{f.post}, nil
}
func (f *fakePosts) ToggleLike(ctx context.Context, postID, userID bson.ObjectID) (*data.Post, bool, error) {
	if f.post == nil {
		return nil, false, data.ErrNotFound
	}
	liked := f.likeResults[0]
	f.likeResults = f.likeResults[1:]
	return f.post, liked, nil
}
func (f *fakePosts) AddComment(ctx context.Context, postID, userID bson.ObjectID, text string) (*data.Post, *data.Comment, error) {
	if text == "" {
		return nil, nil, data.ErrEmptyComment
	}
	if f.post == nil {
		return nil, nil, data.ErrNotFound
	}
	c := data.Comment{ID: bson.NewObjectID(), UserID: userID, Text: text}
	f.post.Comments = append(f.post.Comments, c)
	return f.post, &c, nil
}
func (f *fakePosts) AddReply(ctx context.Context, postID, commentID, userID bson.ObjectID, text string) (*data.Post, *data.Reply, error) {
	for i := range f.post.Comments {
		if f.post.Comments[i].ID == commentID {
			rep := data.Reply{ID: bson.NewObjectID(), UserID: userID, Text: text}
			f.post.Comments[i].Replies = append(f.post.Comments[i].Replies, rep)
			return f.post, &rep, nil
		}
	}
	return nil, nil, data.ErrNotFound
}
func (f *fakePosts) Repost(ctx context.Context, postID, userID bson.ObjectID) (*data.Post, bool, error) {
	if f.post == nil {
		return nil, false, data.ErrNotFound
	}
	added := f.repostResults[0]
	f.repostResults = f.repostResults[1:]
	return f.post, added, nil
}

// recordedPush captures one Notifier.Push call.
type recordedPush struct {
	target bson.ObjectID
	sender bson.ObjectID
	kind   data.NotificationKind
}

type fakeNotifier struct {
	pushes []recordedPush
}

func (f *fakeNotifier) Push(ctx context.Context, targetID, senderID bson.ObjectID, kind data.NotificationKind, postID *bson.ObjectID) {
	f.pushes = append(f.pushes, recordedPush{target: targetID, sender: senderID, kind: kind})
}

// recordedEmit captures one Emitter.EmitToUser call.
type recordedEmit struct {
	userID  string
	event   string
	payload any
}

type fakeEmitter struct {
	emits []recordedEmit
}

func (f *fakeEmitter) EmitToUser(userID, event string, payload any) {
	f.emits = append(f.emits, recordedEmit{userID: userID, event: event, payload: payload})
}

// testEnv bundles a wired router with its fakes and an issued token.
type testEnv struct {
	router   http.Handler
	users    *fakeUsers
	msgs     *fakeMsgs
	notifs   *fakeNotifs
	posts    *fakePosts
	pushes   *fakeNotifier
	emitter  *fakeEmitter
	callerID bson.ObjectID
	token    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   &fakeUsers{exists: true, settings: data.DefaultSettings()},
		msgs:    &fakeMsgs{},
		notifs:  &fakeNotifs{},
		posts:   &fakePosts{},
		pushes:  &fakeNotifier{},
		emitter: &fakeEmitter{},
	}

	jwtMgr := auth.NewJWTManager("test-secret", 5*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := newServer(env.users, env.msgs, env.notifs, env.posts, env.pushes, env.emitter, jwtMgr, logger)

	// generous limits so tests never trip the throttle
	limiter := middleware.NewLimiterStore(600, 100, time.Minute)
	t.Cleanup(limiter.Stop)

	env.router = s.Router(limiter, func(w http.ResponseWriter, r *http.Request) {})

	env.callerID = bson.NewObjectID()
	token, _, err := jwtMgr.GenerateToken(env.callerID, "caller@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	env.token = token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Only the Bearer scheme is accepted: a glued prefix or a different
	// scheme must not pass the raw header through as a token.
	for _, header := range []string{
		"Bearer" + env.token, // no space
		"Basic " + env.token,
		env.token, // no scheme at all
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications/", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Alice", "email": "Alice@Example.com", "password": "pw123456",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var tok tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if tok.Token == "" || tok.UserID == "" {
		t.Fatalf("register response missing token or user id: %+v", tok)
	}

	// missing fields are rejected before touching the store
	w = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "x@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("register: expected 400 for missing fields, got %d", w.Code)
	}

	// login against a stored bcrypt hash
	hash, err := auth.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	env.users.user = &data.User{ID: bson.NewObjectID(), Email: "alice@example.com", Password: hash}

	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "pw123456",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// wrong password and unknown email look identical to the caller
	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401 for wrong password, got %d", w.Code)
	}

	env.users.user = nil
	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "pw123456",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401 for unknown email, got %d", w.Code)
	}
}

func TestSendMessage_PersistsAndEmits(t *testing.T) {
	env := newTestEnv(t)
	receiver := bson.NewObjectID()

	w := env.do(t, http.MethodPost, "/api/messages/send/"+receiver.Hex(), map[string]string{
		"message": "hey there",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	if len(env.msgs.saved) != 1 {
		t.Fatalf("expected 1 saved message, got %d", len(env.msgs.saved))
	}
	saved := env.msgs.saved[0]
	if saved.SenderID != env.callerID || saved.ReceiverID != receiver {
		t.Fatalf("message routed wrong: sender=%v receiver=%v", saved.SenderID, saved.ReceiverID)
	}

	if len(env.emitter.emits) != 1 {
		t.Fatalf("expected 1 emit, got %d", len(env.emitter.emits))
	}
	emit := env.emitter.emits[0]
	if emit.userID != receiver.Hex() || emit.event != realtime.EventNewMessage {
		t.Fatalf("emit went to %s event %s", emit.userID, emit.event)
	}
}

func TestSendMessage_UnknownRecipient(t *testing.T) {
	env := newTestEnv(t)
	env.users.exists = false

	w := env.do(t, http.MethodPost, "/api/messages/send/"+bson.NewObjectID().Hex(), map[string]string{
		"message": "hello?",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(env.msgs.saved) != 0 {
		t.Fatalf("message must not be saved for unknown recipient")
	}
	if len(env.emitter.emits) != 0 {
		t.Fatalf("nothing should be emitted for unknown recipient")
	}
}

func TestSendMessage_EmptyRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/messages/send/"+bson.NewObjectID().Hex(), map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", w.Code)
	}

	// malformed receiver id never reaches the store
	w = env.do(t, http.MethodPost, "/api/messages/send/not-an-id", map[string]string{
		"message": "hey",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestLikePost_NotifiesAuthorOnLikeOnly(t *testing.T) {
	env := newTestEnv(t)
	author := bson.NewObjectID()
	env.posts.post = &data.Post{ID: bson.NewObjectID(), AuthorID: author, Content: "hi"}
	env.posts.likeResults = []bool{true, false}

	// like
	w := env.do(t, http.MethodPost, "/api/posts/"+env.posts.post.ID.Hex()+"/like", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if len(env.pushes.pushes) != 1 {
		t.Fatalf("expected 1 push after like, got %d", len(env.pushes.pushes))
	}
	push := env.pushes.pushes[0]
	if push.target != author || push.sender != env.callerID || push.kind != data.NotificationLike {
		t.Fatalf("unexpected push: %+v", push)
	}

	// unlike: no new push
	w = env.do(t, http.MethodPost, "/api/posts/"+env.posts.post.ID.Hex()+"/like", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unlike: expected 200, got %d", w.Code)
	}
	if len(env.pushes.pushes) != 1 {
		t.Fatalf("unlike must not push, got %d pushes", len(env.pushes.pushes))
	}
}

func TestReplyNotifiesCommentAuthor(t *testing.T) {
	env := newTestEnv(t)
	commenter := bson.NewObjectID()
	comment := data.Comment{ID: bson.NewObjectID(), UserID: commenter, Text: "first"}
	env.posts.post = &data.Post{
		ID:       bson.NewObjectID(),
		AuthorID: bson.NewObjectID(),
		Content:  "hi",
		Comments: []data.Comment{comment},
	}

	path := "/api/posts/" + env.posts.post.ID.Hex() + "/comment/" + comment.ID.Hex() + "/reply"
	w := env.do(t, http.MethodPost, path, map[string]string{"text": "agreed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	if len(env.pushes.pushes) != 1 {
		t.Fatalf("expected 1 push, got %d", len(env.pushes.pushes))
	}
	push := env.pushes.pushes[0]
	if push.target != commenter || push.kind != data.NotificationReply {
		t.Fatalf("reply should notify the comment author: %+v", push)
	}
}

func TestRepost_FirstTimeOnlyNotifies(t *testing.T) {
	env := newTestEnv(t)
	author := bson.NewObjectID()
	env.posts.post = &data.Post{ID: bson.NewObjectID(), AuthorID: author, Content: "hi"}
	env.posts.repostResults = []bool{true, false}

	path := "/api/posts/" + env.posts.post.ID.Hex() + "/repost"
	if w := env.do(t, http.MethodPost, path, nil); w.Code != http.StatusOK {
		t.Fatalf("repost: expected 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, path, nil); w.Code != http.StatusOK {
		t.Fatalf("repeat repost: expected 200, got %d", w.Code)
	}
	if len(env.pushes.pushes) != 1 {
		t.Fatalf("expected exactly 1 push for repeated reposts, got %d", len(env.pushes.pushes))
	}
	if env.pushes.pushes[0].kind != data.NotificationRepost {
		t.Fatalf("unexpected push kind: %v", env.pushes.pushes[0].kind)
	}
}

func TestConnectFlowNotifications(t *testing.T) {
	env := newTestEnv(t)
	other := bson.NewObjectID()

	if w := env.do(t, http.MethodPost, "/api/users/connect/"+other.Hex(), nil); w.Code != http.StatusOK {
		t.Fatalf("connect: expected 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/users/accept/"+other.Hex(), nil); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", w.Code)
	}
	// reject notifies nobody
	if w := env.do(t, http.MethodPost, "/api/users/reject/"+other.Hex(), nil); w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", w.Code)
	}

	if len(env.pushes.pushes) != 2 {
		t.Fatalf("expected 2 pushes (request + accepted), got %d", len(env.pushes.pushes))
	}
	if env.pushes.pushes[0].kind != data.NotificationConnectionRequest || env.pushes.pushes[0].target != other {
		t.Fatalf("unexpected first push: %+v", env.pushes.pushes[0])
	}
	if env.pushes.pushes[1].kind != data.NotificationConnectionAccepted || env.pushes.pushes[1].target != other {
		t.Fatalf("unexpected second push: %+v", env.pushes.pushes[1])
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings: expected 200, got %d", w.Code)
	}

	var settings data.Settings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !settings.EmailNotifications || !settings.JobAlerts {
		t.Fatalf("new accounts start with everything enabled: %+v", settings)
	}

	// flip two toggles; the rest must survive
	w = env.do(t, http.MethodPut, "/api/users/settings", map[string]bool{
		"emailNotifications": false,
		"jobAlerts":          false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update settings: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode updated settings: %v", err)
	}
	if settings.EmailNotifications || settings.JobAlerts {
		t.Fatalf("toggles not flipped: %+v", settings)
	}
	if !settings.ProfileVisibility || !settings.MessageNotifications {
		t.Fatalf("untouched toggles must keep their values: %+v", settings)
	}
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	env.notifs.updated = 3

	w := env.do(t, http.MethodPost, "/api/notifications/read", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp markAllReadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Updated != 3 {
		t.Fatalf("expected 3 updated, got %d", resp.Updated)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
