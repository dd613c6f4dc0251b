package retrieval

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

// corpusFile is the on-disk layout of the medical corpus.
type corpusFile struct {
	Passages []knowledge.Entry `yaml:"passages"`
}

// LoadCorpus reads corpus entries from a YAML file. Entries without content are skipped.
func LoadCorpus(path string) ([]knowledge.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading corpus file: %w", err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes YAML corpus data.
func ParseCorpus(data []byte) ([]knowledge.Entry, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing corpus YAML: %w", err)
	}

	entries := make([]knowledge.Entry, 0, len(file.Passages))
	seen := make(map[string]struct{}, len(file.Passages))
	for i, entry := range file.Passages {
		entry.Content = strings.TrimSpace(entry.Content)
		if entry.Content == "" {
			continue
		}
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("passage-%d", i+1)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate corpus id %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, nil
}
