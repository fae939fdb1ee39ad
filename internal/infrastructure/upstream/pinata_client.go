package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/config"
)

// PinataDefaultURL is the Pinata Farcaster API base URL
const PinataDefaultURL = "https://api.pinata.cloud/v3/farcaster"

// PinataClient reads Farcaster users from the Pinata API
type PinataClient struct {
	client  *Client
	baseURL string
}

// NewPinataClient validates cfg and creates a client
func NewPinataClient(cfg config.PinataConfig, opts ...ClientOption) (*PinataClient, error) {
	if cfg.JWT == "" {
		return nil, shared.ConfigError("pinata", "pinata.jwt")
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		baseURL = PinataDefaultURL
	}

	base := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithHeader("Authorization", "Bearer "+cfg.JWT),
	}
	return &PinataClient{
		client:  NewClient("pinata", append(base, opts...)...),
		baseURL: baseURL,
	}, nil
}

// GetAccountDetails implements account.ProfileSource
func (c *PinataClient) GetAccountDetails(ctx context.Context, id string) (*account.Profile, error) {
	body, err := c.client.GetJSON(ctx, "user", c.baseURL+"/users/"+url.PathEscape(id))
	if err != nil {
		var ue *shared.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, id)
		}
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, shared.NewUpstreamError("pinata", "user", 0, errors.New("invalid JSON response"))
	}

	user := gjson.GetBytes(body, "user")
	if !user.Exists() || user.Type == gjson.Null {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, id)
	}

	var addrs []string
	for _, a := range user.Get("verified_addresses.eth_addresses").Array() {
		addrs = append(addrs, a.String())
	}
	for _, a := range user.Get("verifications").Array() {
		addrs = append(addrs, a.String())
	}
	if custody := user.Get("custody_address").String(); custody != "" {
		addrs = append(addrs, custody)
	}

	profileID := user.Get("fid").String()
	if profileID == "" {
		profileID = id
	}
	return &account.Profile{
		ID:                 profileID,
		Name:               user.Get("username").String(),
		DisplayName:        user.Get("display_name").String(),
		ImageURL:           user.Get("pfp_url").String(),
		ConnectedAddresses: account.NormalizeAddresses(addrs),
	}, nil
}

var _ account.ProfileSource = (*PinataClient)(nil)
