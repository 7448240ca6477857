package processor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

// ParseRequest decodes one JSONL request line.
func ParseRequest(line []byte) (model.CallRequest, error) {
	var req model.CallRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if req.Sender == (common.Address{}) {
		return req, fmt.Errorf("request %q: sender is required", req.ID)
	}
	if strings.TrimSpace(req.Calldata) == "" {
		return req, fmt.Errorf("request %q: calldata is required", req.ID)
	}
	return req, nil
}
