package holder

import "context"

// Source loads the current holder snapshot from the data warehouse.
type Source interface {
	LoadDataset(ctx context.Context) (Dataset, error)
}
