package fixtures

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// LoadEvents reads a recorded play-by-play fixture for feed replay. The
// fixture is one JSON event payload per line, plain (.jsonl) or
// zstd-compressed (.jsonl.zst). Blank lines and unparseable lines are
// skipped with a warning, matching how the live pipeline treats malformed
// messages.
func LoadEvents(path string, logger *zap.Logger) ([]json.RawMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		reader = dec
	}

	var events []json.RawMessage
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			logger.Warn("skipping malformed fixture line",
				zap.String("path", path),
				zap.Int("line", lineNo),
			)
			continue
		}
		events = append(events, json.RawMessage(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("fixture %s contains no events", path)
	}

	return events, nil
}
