package github

import (
	"strconv"
	"time"
)

// Repository is the repository metadata used for classification and import.
type Repository struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	HTMLURL     string    `json:"html_url"`
	Homepage    string    `json:"homepage,omitempty"`
	Language    *string   `json:"language,omitempty"`
	Topics      []string  `json:"topics"`
	Stars       int       `json:"stars"`
	UpdatedAt   time.Time `json:"updated_at"`
	Archived    bool      `json:"archived"`
	Fork        bool      `json:"fork"`
}

type restRepo struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Homepage        *string   `json:"homepage"`
	Language        *string   `json:"language"`
	Topics          []string  `json:"topics"`
	StargazersCount int       `json:"stargazers_count"`
	UpdatedAt       time.Time `json:"updated_at"`
	Archived        bool      `json:"archived"`
	Fork            bool      `json:"fork"`
}

func (r restRepo) toRepository() Repository {
	repo := Repository{
		ID:          strconv.FormatInt(r.ID, 10),
		Name:        r.Name,
		Description: r.Description,
		HTMLURL:     r.HTMLURL,
		Language:    r.Language,
		Topics:      r.Topics,
		Stars:       r.StargazersCount,
		UpdatedAt:   r.UpdatedAt,
		Archived:    r.Archived,
		Fork:        r.Fork,
	}
	if r.Homepage != nil {
		repo.Homepage = *r.Homepage
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}

type graphqlRepo struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	URL             string    `json:"url"`
	HomepageURL     *string   `json:"homepageUrl"`
	StargazerCount  int       `json:"stargazerCount"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IsArchived      bool      `json:"isArchived"`
	IsFork          bool      `json:"isFork"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	RepositoryTopics *struct {
		Nodes []struct {
			Topic struct {
				Name string `json:"name"`
			} `json:"topic"`
		} `json:"nodes"`
	} `json:"repositoryTopics"`
}

func (g graphqlRepo) toRepository() Repository {
	repo := Repository{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		HTMLURL:     g.URL,
		Stars:       g.StargazerCount,
		UpdatedAt:   g.UpdatedAt,
		Archived:    g.IsArchived,
		Fork:        g.IsFork,
		Topics:      []string{},
	}
	if g.HomepageURL != nil {
		repo.Homepage = *g.HomepageURL
	}
	if g.PrimaryLanguage != nil && g.PrimaryLanguage.Name != "" {
		name := g.PrimaryLanguage.Name
		repo.Language = &name
	}
	if g.RepositoryTopics != nil {
		for _, node := range g.RepositoryTopics.Nodes {
			if node.Topic.Name != "" {
				repo.Topics = append(repo.Topics, node.Topic.Name)
			}
		}
	}
	return repo
}
