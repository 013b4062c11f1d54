package github

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fallback_projects.yaml
var embeddedFallback []byte

type fallbackCatalog struct {
	Projects []ImportedProject `yaml:"projects"`
}

// LoadFallback reads the static project catalog from path, or the built-in
// catalog when path is empty.
func LoadFallback(path string) ([]ImportedProject, error) {
	raw := embeddedFallback
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fallback catalog: %w", err)
		}
		raw = data
	}
	return parseFallback(raw)
}

func parseFallback(raw []byte) ([]ImportedProject, error) {
	var catalog fallbackCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse fallback catalog: %w", err)
	}

	projects := make([]ImportedProject, 0, len(catalog.Projects))
	for idx, project := range catalog.Projects {
		if strings.TrimSpace(project.Title) == "" {
			return nil, fmt.Errorf("fallback project %d: title is required", idx)
		}
		for _, category := range project.Categories {
			if !category.Valid() {
				return nil, fmt.Errorf("fallback project %q: unknown category %q", project.Title, category)
			}
		}
		if project.Source == "" {
			project.Source = "static"
		}
		if project.Stack == nil {
			project.Stack = []string{}
		}
		projects = append(projects, project)
	}
	return projects, nil
}
