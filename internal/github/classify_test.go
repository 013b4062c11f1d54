package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(value string) *string { return &value }

func TestClassifyExamples(t *testing.T) {
	tests := []struct {
		name       string
		repo       Repository
		categories []Category
		score      int
	}{
		{
			name: "security writeups",
			repo: Repository{
				Name:        "ctf-writeups",
				Description: strPtr("CTF and pentest notes"),
				Topics:      []string{"security", "ctf"},
				Stars:       12,
			},
			categories: []Category{CategorySecurity},
			score:      60,
		},
		{
			name: "node api",
			repo: Repository{
				Name:        "weather-api",
				Description: strPtr("Node REST API"),
				Topics:      []string{},
				Stars:       3,
			},
			categories: []Category{CategoryWeb},
			score:      31,
		},
		{
			name:       "nothing matched",
			repo:       Repository{Name: "dotfiles", Topics: []string{"zsh"}},
			categories: []Category{CategoryWeb},
			score:      0,
		},
		{
			name: "maximum score",
			repo: Repository{
				Name:        "threat-backend",
				Description: strPtr("Security API"),
				Stars:       50,
			},
			categories: []Category{CategorySecurity, CategoryWeb},
			score:      MaxScore,
		},
		{
			name: "mobile and ai",
			repo: Repository{
				Name:        "flutter-llm-chat",
				Description: nil,
				Topics:      []string{"android"},
				Stars:       4,
			},
			categories: []Category{CategoryAI, CategoryMobile},
			score:      8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.repo)
			assert.Equal(t, tt.categories, got.Categories)
			assert.Equal(t, tt.score, got.Score)
		})
	}
}

func TestClassifyIsTotalAndDeterministic(t *testing.T) {
	repos := []Repository{
		{},
		{Name: "x"},
		{Name: "Android-Security-Server", Description: strPtr("neural network api"), Topics: []string{"ios"}, Stars: 1000},
		{Name: "negative", Stars: -5},
	}

	for _, repo := range repos {
		first := Classify(repo)
		second := Classify(repo)
		require.Equal(t, first, second)
		require.NotEmpty(t, first.Categories)
		for _, category := range first.Categories {
			require.True(t, category.Valid(), "unexpected category %q", category)
		}
		require.GreaterOrEqual(t, first.Score, 0)
		require.LessOrEqual(t, first.Score, MaxScore)
	}
}

func TestClassifyCategoryOrderIgnoresInputOrder(t *testing.T) {
	got := Classify(Repository{Name: "flutter-app", Topics: []string{"api", "llm", "cyber"}})
	require.Equal(t, []Category{CategorySecurity, CategoryAI, CategoryMobile, CategoryWeb}, got.Categories)
}

func TestRankIsStableForEqualScores(t *testing.T) {
	repos := []Repository{
		{ID: "1", Name: "alpha"},
		{ID: "2", Name: "security-tools"},
		{ID: "3", Name: "beta"},
		{ID: "4", Name: "gamma", Stars: 1},
		{ID: "5", Name: "delta"},
	}

	ranked := Rank(repos)
	ids := make([]string, 0, len(ranked))
	for _, item := range ranked {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"2", "4", "1", "3", "5"}, ids)
}

func TestFilterEligible(t *testing.T) {
	repos := []Repository{
		{Name: "keep"},
		{Name: "archived", Archived: true},
		{Name: "fork", Fork: true},
	}
	got := FilterEligible(repos)
	require.Len(t, got, 1)
	require.Equal(t, "keep", got[0].Name)
}
