package aggregate

import (
	"context"

	"cpamm/internal/model"
	"cpamm/internal/storage/postgres"
)

// DBStateStore keeps progress in the processing_state table under Name.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (model.AggregateProgress, bool, error) {
	if s == nil || s.Store == nil {
		return model.AggregateProgress{}, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, progress model.AggregateProgress) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, progress)
}
