package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"linkup/service/mgo"
)

// Online visibility values. A private user produces no presence fanout.
const (
	OnlinePrivacyPublic  = "public"
	OnlinePrivacyPrivate = "private"
)

// User is the account record. Only the fields the event layer snapshots
// (username, display name, privacy flag) matter here; profile CRUD lives
// behind the HTTP layer and is not modeled further.
type User struct {
	ID            string    `bson:"_id"`      // uuid
	Username      string    `bson:"username"` // unique
	Email         string    `bson:"email,omitempty"`
	Password      string    `bson:"password"` // bcrypt hash
	DisplayName   string    `bson:"display_name"`
	AvatarURL     string    `bson:"avatar_url,omitempty"`
	OnlinePrivacy string    `bson:"online_privacy"` // public | private
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (u *User) GetTableName() string { return "users" }

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}

// Name is the display name with the username as fallback, the shape every
// push payload uses.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
