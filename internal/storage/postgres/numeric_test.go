package postgres

import (
	"math"
	"testing"
)

func TestNumeric(t *testing.T) {
	if got := numeric(math.MaxUint64); got != "18446744073709551615" {
		t.Fatalf("unexpected numeric: %s", got)
	}
	if got := numeric(0); got != "0" {
		t.Fatalf("unexpected numeric: %s", got)
	}
}
