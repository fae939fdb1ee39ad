package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grndstats/backend/internal/domain/shared"
)

// SearchResult is one account returned by a display-name search.
type SearchResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentityGraph is the identity service used to resolve addresses and names.
type IdentityGraph interface {
	// SearchByName returns candidate accounts ranked by the provider.
	SearchByName(ctx context.Context, name string) ([]SearchResult, error)
	// ReverseLookupByAddress returns the account linked to a lowercase
	// address, or found=false when no account is linked.
	ReverseLookupByAddress(ctx context.Context, address string) (id string, found bool, err error)
}

// ENSResolver turns an ENS name into the wallet address it points at.
type ENSResolver interface {
	ResolveENS(ctx context.Context, name string) (address string, found bool, err error)
}

// Resolver converts free-form identifier text into a canonical account id.
type Resolver struct {
	graph IdentityGraph
	ens   ENSResolver
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithENSResolver enables resolution of ".eth" names.
func WithENSResolver(ens ENSResolver) ResolverOption {
	return func(r *Resolver) {
		r.ens = ens
	}
}

// NewResolver creates a Resolver backed by graph.
func NewResolver(graph IdentityGraph, opts ...ResolverOption) *Resolver {
	r := &Resolver{graph: graph}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the account id for input. found is false when the input is
// empty or nothing matches; err is non-nil only for upstream failures.
//
// Order: address shape, then decimal id, then ENS name, then display name.
func (r *Resolver) Resolve(ctx context.Context, input string) (id string, found bool, err error) {
	switch kind := Classify(input); kind {
	case InputEmpty:
		return "", false, nil
	case InputAddress:
		return r.byAddress(ctx, NormalizeAddress(input))
	case InputNumeric:
		return strings.TrimSpace(input), true, nil
	case InputENS:
		if r.ens == nil {
			return r.byName(ctx, StripHandle(input))
		}
		addr, ok, err := r.ens.ResolveENS(ctx, NormalizeAddress(input))
		if err != nil {
			return "", false, upstream("ens", err)
		}
		if !ok || !IsAddress(addr) {
			return "", false, nil
		}
		return r.byAddress(ctx, NormalizeAddress(addr))
	default:
		return r.byName(ctx, StripHandle(input))
	}
}

func (r *Resolver) byAddress(ctx context.Context, address string) (string, bool, error) {
	id, ok, err := r.graph.ReverseLookupByAddress(ctx, address)
	if err != nil {
		return "", false, upstream("reverse_lookup", err)
	}
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

func (r *Resolver) byName(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	results, err := r.graph.SearchByName(ctx, name)
	if err != nil {
		return "", false, upstream("search", err)
	}
	if len(results) == 0 {
		return "", false, nil
	}
	for _, res := range results {
		if res.Name == name {
			return res.ID, true, nil
		}
	}
	return results[0].ID, true, nil
}

func upstream(op string, err error) error {
	if errors.Is(err, shared.ErrUpstream) {
		return fmt.Errorf("resolve %s: %w", op, err)
	}
	return shared.NewUpstreamError("identity", op, 0, err)
}
