package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chirp/config"
	"chirp/storetest"
	"chirp/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConnectWithRetrySucceedsAfterFailure(t *testing.T) {
	calls := 0
	conn, err := connectWithRetry(zerolog.Nop(), 3, time.Millisecond, func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("server selection timeout")
		}
		return "connected", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "connected", conn)
	assert.Equal(t, 2, calls)
}

func TestConnectWithRetryDoesNotWaitAfterLastAttempt(t *testing.T) {
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := connectWithRetry(zerolog.Nop(), 1, time.Hour, func() (int, error) {
			calls++
			return 0, errors.New("connection refused")
		})
		done <- err
	}()

	select {
	case err := <-done:
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("connectWithRetry waited after its final attempt")
	}
}

func TestNewRouterServesAPI(t *testing.T) {
	users := storetest.NewUsers()
	cfg := config.Config{
		JWTSecret:      "smoke-secret",
		JWTExpiresIn:   time.Hour,
		AllowedOrigins: []string{"*"},
	}
	router := newRouter(cfg, zerolog.Nop(), users, storetest.NewPosts(users), util.NewRealClock(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	signup := httptest.NewRequest(http.MethodPost, "/api/users/signup",
		strings.NewReader(`{"fullName":"Smoke Test","email":"smoke@example.com","password":"secret123"}`))
	signup.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	login := httptest.NewRequest(http.MethodPost, "/api/users/login",
		strings.NewReader(`{"email":"smoke@example.com","password":"secret123"}`))
	login.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := w.Header().Get("X-Token")
	require.NotEmpty(t, token)

	list := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	list.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, list)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
