package github

import (
	"slices"
	"sort"
	"strings"
)

// Category is a portfolio grouping assigned from repository keywords.
type Category string

const (
	CategoryWeb      Category = "Web"
	CategorySecurity Category = "Security"
	CategoryMobile   Category = "Mobile"
	CategoryAI       Category = "AI"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWeb, CategorySecurity, CategoryMobile, CategoryAI:
		return true
	default:
		return false
	}
}

// Keyword tables. Matching is by substring against the lowercase haystack,
// so short terms such as "ai" also hit inside longer words.
var (
	SecurityTerms = []string{
		"security", "cyber", "ctf", "forensic", "threat", "pentest",
		"vulnerability", "incident", "network", "siem", "osint",
	}
	AITerms     = []string{"ai", "ml", "llm", "neural"}
	MobileTerms = []string{"mobile", "android", "ios", "react-native", "flutter"}
	// BackendTerms put a repository in Web and add to its score.
	BackendTerms = []string{
		"api", "backend", "server", "spring", "java", "node", "python", "auth", "database",
	}
)

const (
	securityWeight = 40
	backendWeight  = 25
	starWeight     = 2
	maxStarPoints  = 20

	// MaxScore is the highest score Classify can assign.
	MaxScore = securityWeight + backendWeight + maxStarPoints
)

// Classification is the category set and relevance score of a repository.
type Classification struct {
	Categories []Category `json:"categories"`
	Score      int        `json:"score"`
}

// Ranked pairs a repository with its classification.
type Ranked struct {
	Repository
	Classification
}

// Classify assigns categories and a relevance score. The category set is
// never empty and keeps the order Security, AI, Mobile, Web.
func Classify(repo Repository) Classification {
	haystack := Haystack(repo)

	security := containsAny(haystack, SecurityTerms)
	backend := containsAny(haystack, BackendTerms)

	categories := make([]Category, 0, 4)
	if security {
		categories = append(categories, CategorySecurity)
	}
	if containsAny(haystack, AITerms) {
		categories = append(categories, CategoryAI)
	}
	if containsAny(haystack, MobileTerms) {
		categories = append(categories, CategoryMobile)
	}
	if len(categories) == 0 || backend {
		categories = append(categories, CategoryWeb)
	}

	score := 0
	if security {
		score += securityWeight
	}
	if backend {
		score += backendWeight
	}
	score += min(maxStarPoints, max(0, repo.Stars)*starWeight)

	return Classification{Categories: slices.Compact(categories), Score: score}
}

// Haystack is the lowercase text searched for keywords.
func Haystack(repo Repository) string {
	description := ""
	if repo.Description != nil {
		description = *repo.Description
	}
	return strings.ToLower(repo.Name + " " + description + " " + strings.Join(repo.Topics, " "))
}

// Eligible excludes archived repositories and forks.
func Eligible(repo Repository) bool {
	return !repo.Archived && !repo.Fork
}

// FilterEligible returns the eligible repositories in input order.
func FilterEligible(repos []Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		if Eligible(repo) {
			out = append(out, repo)
		}
	}
	return out
}

// Rank classifies repos and orders them by score, highest first. Equal
// scores keep their input order.
func Rank(repos []Repository) []Ranked {
	ranked := make([]Ranked, 0, len(repos))
	for _, repo := range repos {
		ranked = append(ranked, Ranked{Repository: repo, Classification: Classify(repo)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
