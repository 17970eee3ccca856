package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"chirp/models"
	"chirp/util"
)

type Claims struct {
	UserID   string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies expiring identity tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	// Verify returns ErrInvalidToken for bad signatures, expired or malformed tokens.
	Verify(token string) (*Claims, error)
}

var ErrInvalidToken = errors.New("invalid token")

type JWTIssuer struct {
	secret    []byte
	expiresIn time.Duration
	clock     util.Clock
}

func NewJWTIssuer(secret string, expiresIn time.Duration, clock util.Clock) *JWTIssuer {
	return &JWTIssuer{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		clock:     clock,
	}
}

func (j *JWTIssuer) Issue(user *models.User) (string, error) {
	now := j.clock.NowUtc()
	claims := &Claims{
		UserID:   user.ID.Hex(),
		FullName: user.FullName,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

func (j *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.clock.NowUtc),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
