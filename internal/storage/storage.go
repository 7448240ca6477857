package storage

import "cpamm/internal/model"

// Storage defines a sink for the outcome of applied bundles.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
	PutResults(results []model.CallResult) error
}
