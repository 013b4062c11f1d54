package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallbackEmbedded(t *testing.T) {
	projects, err := LoadFallback("")
	require.NoError(t, err)
	require.NotEmpty(t, projects)
	for _, project := range projects {
		require.NotEmpty(t, project.Title)
		require.Equal(t, "static", project.Source)
	}
}

func TestLoadFallbackFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
projects:
  - id: custom
    title: Custom Project
    categories: [AI]
`), 0o600))

	projects, err := LoadFallback(path)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "custom", projects[0].ID)
	require.Equal(t, []Category{CategoryAI}, projects[0].Categories)
	require.Equal(t, []string{}, projects[0].Stack)
}

func TestLoadFallbackRejectsUnknownCategory(t *testing.T) {
	_, err := parseFallback([]byte("projects:\n  - title: X\n    categories: [Games]\n"))
	require.ErrorContains(t, err, "unknown category")
}
