package account

import (
	"context"
	"sort"
)

// Profile is the public view of an account used by the stats views.
type Profile struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	DisplayName        string   `json:"display_name,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	ConnectedAddresses []string `json:"connected_addresses"`
}

// ProfileSource loads account details by id. Implementations return
// shared.ErrNotFound when the account does not exist.
type ProfileSource interface {
	GetAccountDetails(ctx context.Context, id string) (*Profile, error)
}

// NormalizeAddresses lowercases, de-duplicates and sorts addresses, dropping
// anything that is not address-shaped.
func NormalizeAddresses(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = NormalizeAddress(a)
		if !IsAddress(a) {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
