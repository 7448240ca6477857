package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cpamm/internal/model"
)

// StateStore persists aggregation progress between runs.
type StateStore interface {
	Load(ctx context.Context) (model.AggregateProgress, bool, error)
	Save(ctx context.Context, progress model.AggregateProgress) error
}

// FileStateStore keeps progress in a local JSON file.
type FileStateStore struct {
	Path string
}

type fileState struct {
	model.AggregateProgress
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (model.AggregateProgress, bool, error) {
	if s == nil || s.Path == "" {
		return model.AggregateProgress{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.AggregateProgress{}, false, nil
		}
		return model.AggregateProgress{}, false, fmt.Errorf("read aggregate state: %w", err)
	}

	var rec fileState
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.AggregateProgress{}, false, fmt.Errorf("parse aggregate state %s: %w", s.Path, err)
	}
	return rec.AggregateProgress, true, nil
}

// Save replaces the state file atomically.
func (s *FileStateStore) Save(ctx context.Context, progress model.AggregateProgress) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.Marshal(fileState{
		AggregateProgress: progress,
		UpdatedAt:         time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal aggregate state: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write aggregate state: %w", err)
	}
	return os.Rename(tmp, s.Path)
}
