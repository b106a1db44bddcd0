package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"pos_client/internal/core"
	apperrors "pos_client/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", 5*time.Second, 100)
}

func TestRemoteCollectionList(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/products", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]core.Product{
			{ID: 1, Name: "Widget", SKU: "W-1", Price: decimal.NewFromInt(10), Stock: 5, Active: true},
		})
	}))
	defer server.Close()

	products := NewRemoteCollection[core.Product](newTestClient(server.URL), CollectionProducts)

	records, err := products.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Widget", records[0].Name)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestRemoteCollectionCreate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var p core.Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		p.ID = 7
		_ = json.NewEncoder(w).Encode(p)
	}))
	defer server.Close()

	products := NewRemoteCollection[core.Product](newTestClient(server.URL), CollectionProducts)

	created, err := products.Create(context.Background(), core.Product{Name: "Widget", SKU: "W-1"})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
}

func TestRemoteErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: apperrors.ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: apperrors.ErrInvalidCredentials},
		{name: "forbidden", status: http.StatusForbidden, wantErr: apperrors.ErrInvalidCredentials},
		{name: "bad request", status: http.StatusBadRequest, wantErr: apperrors.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			products := NewRemoteCollection[core.Product](newTestClient(server.URL), CollectionProducts)
			_, err := products.List(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRemoteRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]core.Product{})
	}))
	defer server.Close()

	products := NewRemoteCollection[core.Product](newTestClient(server.URL), CollectionProducts)

	_, err := products.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRemoteSessionsLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(core.Session{
			Shop:  core.Shop{ID: 3, Name: "Corner Store", Email: req.Email, Role: core.RoleShop, Active: true},
			Token: "remote-token",
		})
	}))
	defer server.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	defer cache.Close()

	sessions := NewRemoteSessions(newTestClient(server.URL), cache)

	_, err = sessions.Login(context.Background(), "corner@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	session, err := sessions.Login(context.Background(), "corner@example.com", "right")
	require.NoError(t, err)
	assert.Equal(t, 3, session.Shop.ID)
	assert.False(t, session.LoginTime.IsZero())

	// The session survives in the local cache
	restored, err := sessions.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "remote-token", restored.Token)
}
