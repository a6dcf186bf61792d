package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientWithoutKeyRefusesCalls(t *testing.T) {
	client := NewAdminClient("http://identity.local", "", time.Second)
	require.False(t, client.Configured())

	require.ErrorIs(t, client.DeleteAccount(context.Background(), "u1"), ErrNoServiceCredentials)
	_, err := client.GetAccount(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoServiceCredentials)
	_, err = client.ListAccounts(context.Background())
	require.ErrorIs(t, err, ErrNoServiceCredentials)
}

func TestDeleteAccountSendsServiceKey(t *testing.T) {
	var gotAuth, gotKey, gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL+"/", "service-key", time.Second)
	require.NoError(t, client.DeleteAccount(context.Background(), "user-1"))
	require.Equal(t, "Bearer service-key", gotAuth)
	require.Equal(t, "service-key", gotKey)
	require.Equal(t, "/admin/users/user-1", gotPath)
	require.Equal(t, http.MethodDelete, gotMethod)
}

func TestStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/users/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("database unavailable"))
		}
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL, "key", time.Second)

	_, err := client.GetAccount(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAccountNotFound)

	err = client.DeleteAccount(context.Background(), "broken")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, http.StatusInternalServerError, providerErr.Status)
	require.Contains(t, err.Error(), "database unavailable")
}

func TestListAccountsPages(t *testing.T) {
	total := 5
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		start := (page - 1) * perPage
		users := []Account{}
		for i := start; i < total && i < start+perPage; i++ {
			users = append(users, Account{ID: fmt.Sprintf("user-%d", i), Email: fmt.Sprintf("u%d@example.com", i)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL, "key", time.Second)
	client.pageSize = 2

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, total)
	require.Equal(t, "user-4", accounts[4].ID)
}
