package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all tender portal sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one tender listing page and the CSS selectors that
// locate tender metadata inside it.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	BaseURL  string `yaml:"base_url"`
	MaxPages int    `yaml:"max_pages,omitempty"`

	Selectors SelectorConfig `yaml:"selectors"`
}

type SelectorConfig struct {
	Container string `yaml:"container"`           // wrapper for one tender row
	Link      string `yaml:"link"`                // tender document link
	Title     string `yaml:"title"`
	Reference string `yaml:"reference,omitempty"`
	Category  string `yaml:"category,omitempty"`
	Location  string `yaml:"location,omitempty"`
	Deadline  string `yaml:"deadline,omitempty"`
	NextPage  string `yaml:"next_page,omitempty"` // pagination link
}

// LoadRegistry reads the source registry from path, falling back to the
// embedded default when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error

	if path == "" {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source registry: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse source registry: %w", err)
	}
	return &registry, nil
}

// Find returns the source with the given id.
func (r *Registry) Find(id string) (*SourceConfig, error) {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("source id %q not found in registry", id)
}
