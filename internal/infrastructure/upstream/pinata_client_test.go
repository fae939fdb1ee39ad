package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/config"
)

func TestNewPinataClient_RequiresJWT(t *testing.T) {
	_, err := NewPinataClient(config.PinataConfig{})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestPinataClient_GetAccountDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/users/42":
			_, _ = w.Write([]byte(`{"user":{
				"fid":42,"username":"alice","display_name":"Alice","pfp_url":"https://img/a.png",
				"custody_address":"0xCCCC000000000000000000000000000000000003",
				"verified_addresses":{"eth_addresses":["0xaaaa000000000000000000000000000000000001"]},
				"verifications":["0xaaaa000000000000000000000000000000000001"]
			}}`))
		case "/users/404":
			w.WriteHeader(http.StatusNotFound)
		case "/users/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"user":null}`))
		}
	}))
	defer srv.Close()

	c, err := NewPinataClient(config.PinataConfig{JWT: "jwt-token", URL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.GetAccountDetails(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "alice", p.Name)
	assert.Equal(t, "Alice", p.DisplayName)
	assert.Equal(t, "https://img/a.png", p.ImageURL)
	assert.Equal(t, []string{
		"0xaaaa000000000000000000000000000000000001",
		"0xcccc000000000000000000000000000000000003",
	}, p.ConnectedAddresses)

	_, err = c.GetAccountDetails(ctx, "404")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = c.GetAccountDetails(ctx, "7")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = c.GetAccountDetails(ctx, "500")
	assert.ErrorIs(t, err, shared.ErrUpstream)
}
