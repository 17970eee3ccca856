package services

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/apperror"
	"chirp/auth"
	"chirp/database"
	"chirp/models"
	"chirp/util"
)

const (
	msgUserExists         = "User already exists."
	msgInvalidCredentials = "Invalid credentials."
	msgInvalidToken       = "Unauthorized. Invalid token."
	msgUserNotFound       = "User not found."
)

type UserService struct {
	users  UserStore
	hasher auth.PasswordHasher
	tokens auth.TokenIssuer
	clock  util.Clock
}

func NewUserService(users UserStore, hasher auth.PasswordHasher, tokens auth.TokenIssuer, clock util.Clock) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		clock:  clock,
	}
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// Signup creates the account. It does not log the user in.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if exists {
		return nil, apperror.Conflict(msgUserExists)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.clock.NowUtc()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still decides when two signups race past the check above.
	err = s.users.Create(ctx, user)
	if errors.Is(err, database.ErrDuplicateKey) {
		return nil, apperror.Conflict(msgUserExists)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	public := user.Public()
	return &public, nil
}

// Login returns a signed token. Unknown email and wrong password fail identically.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return "", apperror.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return "", apperror.Internal(err)
	}

	err = s.hasher.Compare(user.PasswordHash, password)
	if errors.Is(err, auth.ErrPasswordMismatch) {
		return "", apperror.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return "", apperror.Internal(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return token, nil
}

// Authenticate verifies token and resolves the user it was issued to.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.Unauthenticated(msgInvalidToken)
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthenticated(msgInvalidToken)
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}
