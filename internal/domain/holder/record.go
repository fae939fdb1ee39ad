package holder

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/shared"
)

// Record is one row of a holder snapshot.
type Record struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Addresses   []string        `json:"addresses"`
	TotalMetric decimal.Decimal `json:"total_metric"`
}

// NewRecord builds a Record with its addresses normalized to a sorted,
// lowercase, duplicate-free list.
func NewRecord(id, displayName string, addresses []string, total decimal.Decimal) Record {
	return Record{
		ID:          id,
		DisplayName: displayName,
		Addresses:   account.NormalizeAddresses(addresses),
		TotalMetric: total,
	}
}

// HasAddress reports whether addr (already lowercase) belongs to the record.
func (r Record) HasAddress(addr string) bool {
	for _, a := range r.Addresses {
		if a == addr {
			return true
		}
	}
	return false
}

// Dataset is an ordered holder snapshot. Order is the warehouse's row order
// and is used to break ties deterministically.
type Dataset struct {
	Records []Record `json:"records"`
}

// NewDataset validates that ids are unique. Shared addresses are allowed.
func NewDataset(records []Record) (Dataset, error) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return Dataset{}, fmt.Errorf("%w: holder record without id", shared.ErrInvalidInput)
		}
		if _, ok := seen[r.ID]; ok {
			return Dataset{}, fmt.Errorf("%w: duplicate holder id %q", shared.ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return Dataset{Records: records}, nil
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// IsEmpty reports whether the dataset has no records.
func (d Dataset) IsEmpty() bool {
	return len(d.Records) == 0
}

// ByID returns the record with the given id.
func (d Dataset) ByID(id string) (*Record, bool) {
	for i := range d.Records {
		if d.Records[i].ID == id {
			return &d.Records[i], true
		}
	}
	return nil, false
}
