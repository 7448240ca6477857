package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cpamm/internal/model"
)

// JsonlStorage writes state-delta records and call results to JSONL files.
type JsonlStorage struct {
	logPath    string
	resultPath string
	mu         sync.Mutex
}

// NewJsonlStorage writes logs to logPath and results to resultPath. An empty
// resultPath discards results.
func NewJsonlStorage(logPath, resultPath string) *JsonlStorage {
	return &JsonlStorage{logPath: logPath, resultPath: resultPath}
}

// PutLogBatch appends a batch of log records as JSON lines.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	values := make([]interface{}, len(logs))
	for i := range logs {
		values[i] = logs[i]
	}
	return s.appendLines(s.logPath, values)
}

// PutResults appends call results as JSON lines.
func (s *JsonlStorage) PutResults(results []model.CallResult) error {
	if s.resultPath == "" {
		return nil
	}
	values := make([]interface{}, len(results))
	for i := range results {
		values[i] = results[i]
	}
	return s.appendLines(s.resultPath, values)
}

func (s *JsonlStorage) appendLines(path string, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, value := range values {
		line, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ScanLines calls fn with the 1-based line number and the trimmed content of
// every non-empty line of a JSONL file.
func ScanLines(path string, fn func(line uint64, data []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var n uint64
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
