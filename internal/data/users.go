// Package data provides DB models and stores.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/olatoyosi/prolink/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// profileProjection limits reads to the public profile fields.
var profileProjection = bson.M{"name": 1, "email": 1, "title": 1, "profile_image": 1}

// UsersStore performs user DB operations.
type UsersStore struct {
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user document with an already-hashed password.
func (u *UsersStore) CreateUser(ctx context.Context, name, email, hashedPassword string) (*User, error) {
	now := time.Now()
	user := &User{
		Name:               name,
		Email:              normalize.Email(email),
		Password:           hashedPassword,
		Connections:        []bson.ObjectID{},
		ConnectionRequests: []bson.ObjectID{},
		Settings:           DefaultSettings(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email turns duplicate registration into a
		// duplicate key error.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetUserByEmail finds a user by email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID finds a user by ObjectID.
func (u *UsersStore) GetUserByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserExists checks if a user exists by id.
func (u *UsersStore) UserExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	count, err := u.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProfiles resolves public profiles for a set of user ids. Ids that do not
// match a user are simply absent from the result map.
func (u *UsersStore) GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]Profile, error) {
	profiles := make(map[bson.ObjectID]Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	opts := options.Find().SetProjection(profileProjection)
	cursor, err := u.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []Profile
	if err = cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	for _, p := range found {
		profiles[p.ID] = p
	}
	return profiles, nil
}

// UpdateProfileParams carries the profile fields a user may change. Nil
// pointers leave the stored field untouched.
type UpdateProfileParams struct {
	Name            *string
	Title           *string
	Location        *string
	About           *string
	Skills          []string
	Experience      []Experience
	Education       []Education
	ProfileImage    *string
	BackgroundImage *string
}

// UpdateProfile applies the provided changes and returns the updated user.
func (u *UsersStore) UpdateProfile(ctx context.Context, id bson.ObjectID, params UpdateProfileParams) (*User, error) {
	set := bson.M{"updated_at": time.Now()}
	if params.Name != nil {
		set["name"] = *params.Name
	}
	if params.Title != nil {
		set["title"] = *params.Title
	}
	if params.Location != nil {
		set["location"] = *params.Location
	}
	if params.About != nil {
		set["about"] = *params.About
	}
	if params.Skills != nil {
		set["skills"] = params.Skills
	}
	if params.Experience != nil {
		set["experience"] = params.Experience
	}
	if params.Education != nil {
		set["education"] = params.Education
	}
	if params.ProfileImage != nil {
		set["profile_image"] = *params.ProfileImage
	}
	if params.BackgroundImage != nil {
		set["background_image"] = *params.BackgroundImage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err := u.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetSettings returns a user's preference toggles.
func (u *UsersStore) GetSettings(ctx context.Context, id bson.ObjectID) (*Settings, error) {
	user, err := u.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

// UpdateSettingsParams carries the toggles a user may change. Nil pointers
// leave the stored toggle untouched, so partial updates merge into the
// existing settings.
type UpdateSettingsParams struct {
	EmailNotifications   *bool
	ProfileVisibility    *bool
	MessageNotifications *bool
	ActivityStatus       *bool
	AllowSearchEngines   *bool
	ConnectionRequests   *bool
	JobAlerts            *bool
}

// UpdateSettings applies the provided toggles and returns the merged result.
func (u *UsersStore) UpdateSettings(ctx context.Context, id bson.ObjectID, params UpdateSettingsParams) (*Settings, error) {
	set := bson.M{"updated_at": time.Now()}
	if params.EmailNotifications != nil {
		set["settings.email_notifications"] = *params.EmailNotifications
	}
	if params.ProfileVisibility != nil {
		set["settings.profile_visibility"] = *params.ProfileVisibility
	}
	if params.MessageNotifications != nil {
		set["settings.message_notifications"] = *params.MessageNotifications
	}
	if params.ActivityStatus != nil {
		set["settings.activity_status"] = *params.ActivityStatus
	}
	if params.AllowSearchEngines != nil {
		set["settings.allow_search_engines"] = *params.AllowSearchEngines
	}
	if params.ConnectionRequests != nil {
		set["settings.connection_requests"] = *params.ConnectionRequests
	}
	if params.JobAlerts != nil {
		set["settings.job_alerts"] = *params.JobAlerts
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err := u.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user.Settings, nil
}

// SearchUsers returns public profiles whose name or title matches the query,
// excluding the searching user.
func (u *UsersStore) SearchUsers(ctx context.Context, query string, exclude bson.ObjectID, limit int64) ([]Profile, error) {
	pattern := bson.M{"$regex": fmt.Sprintf(".*%s.*", escapeRegex(query)), "$options": "i"}
	filter := bson.M{
		"_id": bson.M{"$ne": exclude},
		"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"title": pattern},
		},
	}

	opts := options.Find().SetProjection(profileProjection).SetLimit(limit)
	cursor, err := u.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []Profile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// AddConnectionRequest records a pending request from fromID on toID's
// document. Returns ErrAlreadyLinked when a request is already pending or the
// users are already connected.
func (u *UsersStore) AddConnectionRequest(ctx context.Context, fromID, toID bson.ObjectID) error {
	target, err := u.GetUserByID(ctx, toID)
	if err != nil {
		return err
	}

	if containsID(target.ConnectionRequests, fromID) || containsID(target.Connections, fromID) {
		return ErrAlreadyLinked
	}

	_, err = u.coll.UpdateOne(ctx,
		bson.M{"_id": toID},
		bson.M{"$addToSet": bson.M{"connection_requests": fromID}},
	)
	return err
}

// ListConnectionRequests resolves the pending incoming requests for a user.
func (u *UsersStore) ListConnectionRequests(ctx context.Context, id bson.ObjectID) ([]Profile, error) {
	user, err := u.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.orderedProfiles(ctx, user.ConnectionRequests)
}

// AcceptConnection makes the connection symmetric: both users gain each
// other's id exactly once and the pending request is removed from the
// accepting side.
func (u *UsersStore) AcceptConnection(ctx context.Context, userID, fromID bson.ObjectID) error {
	// Verify the requester still exists before mutating either document.
	if ok, err := u.UserExists(ctx, fromID); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}

	// $addToSet keeps the connection lists duplicate-free even if accept is
	// retried.
	res, err := u.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"connections": fromID},
			"$pull":     bson.M{"connection_requests": fromID},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	_, err = u.coll.UpdateOne(ctx,
		bson.M{"_id": fromID},
		bson.M{"$addToSet": bson.M{"connections": userID}},
	)
	return err
}

// RejectConnection drops a pending request without notifying anyone.
func (u *UsersStore) RejectConnection(ctx context.Context, userID, fromID bson.ObjectID) error {
	res, err := u.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"connection_requests": fromID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListConnections resolves a user's connections to public profiles.
func (u *UsersStore) ListConnections(ctx context.Context, id bson.ObjectID) ([]Profile, error) {
	user, err := u.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.orderedProfiles(ctx, user.Connections)
}

// orderedProfiles resolves ids preserving the order of the input list.
func (u *UsersStore) orderedProfiles(ctx context.Context, ids []bson.ObjectID) ([]Profile, error) {
	byID, err := u.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func containsID(ids []bson.ObjectID, id bson.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// escapeRegex neutralizes regex metacharacters in user-supplied search input.
func escapeRegex(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(meta); j++ {
			if s[i] == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}
