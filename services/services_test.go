package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"chirp/apperror"
	"chirp/auth"
	"chirp/models"
	"chirp/services"
	"chirp/storetest"
	"chirp/util"
)

var (
	_ services.UserStore = (*storetest.Users)(nil)
	_ services.PostStore = (*storetest.Posts)(nil)
)

type testEnv struct {
	clock  *util.StubClock
	users  *storetest.Users
	posts  *storetest.Posts
	tokens *auth.JWTIssuer
	userSv *services.UserService
	postSv *services.PostService
}

func newTestEnv() *testEnv {
	clock := util.NewStubClock()
	users := storetest.NewUsers()
	posts := storetest.NewPosts(users)
	tokens := auth.NewJWTIssuer("test-secret", time.Hour, clock)

	return &testEnv{
		clock:  clock,
		users:  users,
		posts:  posts,
		tokens: tokens,
		userSv: services.NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens, clock),
		postSv: services.NewPostService(posts, clock),
	}
}

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func fakeSignup() services.SignupInput {
	return services.SignupInput{
		FullName: gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
}

func (e *testEnv) signup(ctx context.Context, t *testing.T) *models.User {
	t.Helper()
	user, err := e.userSv.Signup(ctx, fakeSignup())
	require.NoError(t, err)
	return user
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperror.Is(err, kind), "want %s, got %v", kind, err)
	return apperror.From(err)
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
