package processor

import (
	"fmt"
	"time"

	"cpamm/internal/model"
)

// finalizeRecords stamps the logs of a committed bundle with their position.
func finalizeRecords(records []model.LogRecord, round uint64, bundleID string, timestamp uint64, ingestedAt time.Time) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(records))
	for _, rec := range records {
		rec.Round = round
		rec.BundleID = bundleID
		rec.Timestamp = timestamp
		rec.IngestedAt = ingestedAt.UTC().Format(time.RFC3339Nano)
		out = append(out, rec)
	}
	return out
}

func bundleID(req model.CallRequest, line uint64) string {
	if req.ID != "" {
		return req.ID
	}
	return fmt.Sprintf("line-%d", line)
}
