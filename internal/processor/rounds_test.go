package processor

import (
	"reflect"
	"testing"
)

func pendingLines(lines ...uint64) []pending {
	out := make([]pending, len(lines))
	for i, line := range lines {
		out[i] = pending{line: line}
	}
	return out
}

func spans(rounds [][]pending) [][2]uint64 {
	out := make([][2]uint64, len(rounds))
	for i, round := range rounds {
		first, last := lineSpan(round)
		out[i] = [2]uint64{first, last}
	}
	return out
}

func TestSplitRounds(t *testing.T) {
	// line 4 was blank in the request file
	got, err := splitRounds(pendingLines(1, 2, 3, 5, 6), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]uint64{{1, 2}, {3, 5}, {6, 6}}
	if !reflect.DeepEqual(spans(got), want) {
		t.Fatalf("rounds mismatch: %+v != %+v", spans(got), want)
	}
}

func TestSplitRoundsSingle(t *testing.T) {
	got, err := splitRounds(pendingLines(9), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("expected one round of one request, got %+v", spans(got))
	}
}

func TestSplitRoundsAppendDoesNotLeak(t *testing.T) {
	requests := pendingLines(1, 2, 3, 4)
	got, err := splitRounds(requests, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = append(got[0], pending{line: 99})
	if requests[2].line != 3 {
		t.Fatalf("appending to a round overwrote the next one: %+v", requests)
	}
}

func TestSplitRoundsInvalid(t *testing.T) {
	if _, err := splitRounds(pendingLines(1), 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
	got, err := splitRounds(nil, 3)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no rounds, got %+v, %v", got, err)
	}
}
