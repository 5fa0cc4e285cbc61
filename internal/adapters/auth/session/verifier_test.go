package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, h http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k-1", Timeout: time.Second})
	require.NoError(t, err)
	return NewVerifier(c)
}

func TestVerifier_OK(t *testing.T) {
	v := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, verifyPath, r.URL.Path)
		assert.Equal(t, "k-1", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok", body["token"])

		_ = json.NewEncoder(w).Encode(map[string]string{"user_id": " u-1 ", "email": "a@b.c"})
	})

	claims, err := v.Verify(context.Background(), " tok ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestVerifier_Unauthorized(t *testing.T) {
	v := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := v.Verify(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifier_UpstreamErrors(t *testing.T) {
	t.Run("5xx", func(t *testing.T) {
		v := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := v.Verify(context.Background(), "tok")
		require.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("missing user id", func(t *testing.T) {
		v := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"email":"x@y.z"}`))
		})
		_, err := v.Verify(context.Background(), "tok")
		require.ErrorIs(t, err, ErrUpstream)
	})
}

func TestVerifier_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, c.IsConfigured())

	_, err = NewVerifier(c).Verify(context.Background(), "tok")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewVerifier(nil).Verify(context.Background(), "tok")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifier_EmptyToken(t *testing.T) {
	v := newProvider(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no debería llamar al proveedor")
	})
	_, err := v.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrTokenEmpty)
}
