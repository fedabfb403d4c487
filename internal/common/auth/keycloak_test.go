package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"onboarding-orchestrator/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeycloak struct {
	tokenCalls int32
	users      []User
	createCode int
}

func (f *fakeKeycloak) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/marketplace/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok", ExpiresIn: 300, TokenType: "Bearer"})
	})
	mux.HandleFunc("/admin/realms/marketplace/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.users)
		case http.MethodPost:
			if f.createCode == http.StatusCreated {
				w.Header().Set("Location", "http://kc/admin/realms/marketplace/users/user-123")
			}
			w.WriteHeader(f.createCode)
		}
	})
	mux.HandleFunc("/admin/realms/marketplace/users/user-123", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeKeycloak) *KeycloakClient {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewKeycloakClient(srv.URL+"/", "marketplace", "onboarding", "secret")
}

func TestCreateUser(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := &fakeKeycloak{createCode: http.StatusCreated}
		kc := newTestClient(t, f)

		user, err := kc.CreateUser(context.Background(), &User{Email: "amina@example.com", Enabled: true})
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
		assert.Equal(t, "amina@example.com", user.Username)

		_, err = kc.FindUserByEmail(context.Background(), "amina@example.com")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls), "token is cached")
	})

	t.Run("conflict maps to account exists", func(t *testing.T) {
		kc := newTestClient(t, &fakeKeycloak{createCode: http.StatusConflict})

		_, err := kc.CreateUser(context.Background(), &User{Email: "amina@example.com"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAccountExists, errors.CodeOf(err))
	})

	t.Run("server error is retryable", func(t *testing.T) {
		kc := newTestClient(t, &fakeKeycloak{createCode: http.StatusServiceUnavailable})

		_, err := kc.CreateUser(context.Background(), &User{Email: "amina@example.com"})
		stdErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeAccountCreateFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})
}

func TestFindUserByEmail(t *testing.T) {
	kc := newTestClient(t, &fakeKeycloak{})
	user, err := kc.FindUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	kc = newTestClient(t, &fakeKeycloak{users: []User{{ID: "u1", Email: "amina@example.com"}}})
	user, err = kc.FindUserByEmail(context.Background(), "amina@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
}

func TestDeleteUser(t *testing.T) {
	kc := newTestClient(t, &fakeKeycloak{})
	assert.NoError(t, kc.DeleteUser(context.Background(), "user-123"))
}
