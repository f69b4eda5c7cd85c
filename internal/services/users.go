package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
	"github.com/harentsoaR/doctors-portal/internal/utils"
)

type UserService struct {
	users  store.Collection
	tokens *utils.TokenManager
	log    zerolog.Logger
}

func NewUserService(s store.Store, tokens *utils.TokenManager, log zerolog.Logger) *UserService {
	return &UserService{
		users:  s.Collection(store.Users),
		tokens: tokens,
		log:    log.With().Str("component", "users").Logger(),
	}
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}, &u); err != nil {
		return nil, storeErr("user", err)
	}
	return &u, nil
}

// IssueToken signs a session token for a registered email. An unknown email
// gets an empty token and no error: the caller has not signed up yet.
func (s *UserService) IssueToken(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	_, err := s.FindByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateJWT(email)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Register records a user on first sign-in. Later sign-ins refresh the
// profile but never touch the role.
func (s *UserService) Register(ctx context.Context, u models.User) (created bool, err error) {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"email": u.Email},
		bson.M{
			"$set":         bson.M{"name": u.Name},
			"$setOnInsert": bson.M{"role": models.RolePatient},
		},
		true,
	)
	if errors.Is(err, store.ErrDuplicate) {
		// concurrent first sign-in already created the record
		return false, nil
	}
	if err != nil {
		return false, storeErr("user", err)
	}
	if res.UpsertedID != nil {
		s.log.Info().Str("email", u.Email).Msg("user registered")
		return true, nil
	}
	return false, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := s.users.Find(ctx, bson.M{}, &users); err != nil {
		return nil, storeErr("users", err)
	}
	if users == nil {
		users = make([]models.User, 0)
	}
	return users, nil
}

func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := s.FindByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

// Promote grants the admin role. Setting the same value twice is harmless,
// so concurrent promotions need no coordination.
func (s *UserService) Promote(ctx context.Context, id string) (modified bool, err error) {
	oid, err := parseID("user", id)
	if err != nil {
		return false, err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": models.RoleAdmin}}, false)
	if err != nil {
		return false, storeErr("user", err)
	}
	if res.Matched == 0 {
		return false, errs.NotFound("user", nil)
	}
	s.log.Info().Str("user_id", id).Msg("user promoted to admin")
	return res.Modified > 0, nil
}
