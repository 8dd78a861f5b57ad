package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/phoenixcrm/leadview/pkg/model"

	"go.uber.org/zap"
)

// LoadResult carries leads read from a file along with how many JSONL lines
// had to be skipped.
type LoadResult struct {
	Leads   []model.Lead
	Skipped int
}

// LoadLeadsFromFile reads leads from a JSON array or a JSONL file.
//
// A JSON array must decode as a whole. In JSONL mode malformed lines are
// skipped and counted, so one bad export line does not hide the rest.
func LoadLeadsFromFile(path string) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return LoadResult{}, fmt.Errorf("no leads file found at %s", path)
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to read leads file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return LoadResult{Leads: []model.Lead{}}, nil
	}
	if trimmed[0] == '[' {
		var leads []model.Lead
		if err := json.Unmarshal(trimmed, &leads); err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse leads array in %s: %w", path, err)
		}
		if leads == nil {
			leads = []model.Lead{}
		}
		return LoadResult{Leads: leads}, nil
	}
	return parseJSONL(trimmed)
}

func parseJSONL(data []byte) (LoadResult, error) {
	result := LoadResult{Leads: []model.Lead{}}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Lead notes can be long.
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var lead model.Lead
		if line[0] != '{' || json.Unmarshal(line, &lead) != nil {
			result.Skipped++
			continue
		}
		result.Leads = append(result.Leads, lead)
	}
	if err := scanner.Err(); err != nil {
		return LoadResult{}, fmt.Errorf("error reading leads file: %w", err)
	}
	return result, nil
}

// FileSource serves leads from a local file. Every fetch re-reads the file.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a source for path. A nil logger discards output.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Path returns the file being served.
func (s *FileSource) Path() string {
	return s.path
}

// FetchLeads implements viewmodel.Fetcher.
func (s *FileSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := LoadLeadsFromFile(s.path)
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		s.logger.Warn("skipped malformed lead lines",
			zap.String("path", s.path),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result.Leads, nil
}
