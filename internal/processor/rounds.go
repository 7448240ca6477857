package processor

import "fmt"

// splitRounds groups pending requests into rounds of at most perRound
// requests, keeping file order. Every request of a round shares its round
// number and the checkpoint advances only at round boundaries.
func splitRounds(requests []pending, perRound uint64) ([][]pending, error) {
	if perRound == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	rounds := make([][]pending, 0, (uint64(len(requests))+perRound-1)/perRound)
	for len(requests) > 0 {
		n := perRound
		if rest := uint64(len(requests)); rest < n {
			n = rest
		}
		rounds = append(rounds, requests[:n:n])
		requests = requests[n:]
	}
	return rounds, nil
}

// lineSpan returns the first and last request line of a round.
func lineSpan(round []pending) (first, last uint64) {
	if len(round) == 0 {
		return 0, 0
	}
	return round[0].line, round[len(round)-1].line
}
