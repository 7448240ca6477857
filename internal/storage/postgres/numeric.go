package postgres

import "strconv"

// numeric renders a uint64 as text so values above MaxInt64 survive the
// NUMERIC column round trip.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}
