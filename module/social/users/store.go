package users

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// Store abstracts account persistence. Production implementation is Mongo;
// a memory implementation (memstore.go) backs the tests.
type Store interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type mongoStore struct{}

func NewMongoStore() Store { return &mongoStore{} }

func (s *mongoStore) Create(ctx context.Context, u *model.User) error {
	// username uniqueness is enforced twice: pre-check for a clean conflict
	// message, unique index for the race.
	or := bson.A{bson.M{"username": u.Username}}
	if u.Email != "" {
		or = append(or, bson.M{"email": u.Email})
	}
	count, err := u.Collection().CountDocuments(ctx, bson.M{"$or": or})
	if err != nil {
		return errs.WrapMsg(err, "count users")
	}
	if count > 0 {
		return errs.ErrConflict.WrapMsg("username or email already taken")
	}
	if _, err := u.Collection().InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict.WrapMsg("username already taken")
		}
		return errs.WrapMsg(err, "insert user")
	}
	return nil
}

func (s *mongoStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := (&model.User{}).Collection().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user", "id", id)
	}
	return &u, nil
}

func (s *mongoStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := (&model.User{}).Collection().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user", "username", username)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user", "username", username)
	}
	return &u, nil
}
