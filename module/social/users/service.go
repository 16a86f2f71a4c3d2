package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linkup/module/social/model"
	"linkup/tools/errs"
	"linkup/tools/security"
)

type SignupInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
}

type Service struct {
	store   Store
	jwtOpts security.Options
}

func NewService(store Store, jwtOpts security.Options) *Service {
	return &Service{store: store, jwtOpts: jwtOpts}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, errs.ErrBadRequest.WrapMsg("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.WrapMsg(err, "hash password")
	}
	now := time.Now()
	u := &model.User{
		ID:            uuid.NewString(),
		Username:      in.Username,
		Email:         in.Email,
		Password:      string(hash),
		DisplayName:   in.DisplayName,
		OnlinePrivacy: model.OnlinePrivacyPublic,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if u.DisplayName == "" {
		u.DisplayName = in.Username
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a JWT. The same message covers the
// unknown-user and bad-password paths.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", errs.ErrUnauthorized.WrapMsg("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", errs.ErrUnauthorized.WrapMsg("invalid username or password")
	}
	token, _, err := security.Generate(s.jwtOpts, u.ID, u.Username)
	if err != nil {
		return nil, "", errs.WrapMsg(err, "sign token")
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	return s.store.GetByID(ctx, id)
}
