package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/discovery"
)

const defaultBaseURL = "https://api.github.com"

// Client searches repositories through the GitHub REST API. The token
// is optional; unauthenticated calls just hit lower rate limits.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type searchItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Full  string `json:"full_name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	HTMLURL     string   `json:"html_url"`
	CloneURL    string   `json:"clone_url"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Archived    bool     `json:"archived"`
	UpdatedAt   string   `json:"updated_at"`
	CreatedAt   string   `json:"created_at"`
}

// Search runs one query against /search/repositories, most recently
// updated first.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]domain.Repo, error) {
	if perPage <= 0 {
		perPage = 30
	}
	params := url.Values{
		"q":        {query},
		"sort":     {"updated"},
		"order":    {"desc"},
		"per_page": {strconv.Itoa(perPage)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/repositories?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("github search: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Items []searchItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	out := make([]domain.Repo, 0, len(payload.Items))
	for _, item := range payload.Items {
		out = append(out, domain.Repo{
			ID:          item.ID,
			Name:        item.Name,
			FullName:    item.Full,
			Owner:       item.Owner.Login,
			HTMLURL:     item.HTMLURL,
			CloneURL:    item.CloneURL,
			Stars:       item.Stars,
			Forks:       item.Forks,
			Language:    item.Language,
			Description: item.Description,
			Topics:      item.Topics,
			Archived:    item.Archived,
			UpdatedAt:   item.UpdatedAt,
			CreatedAt:   item.CreatedAt,
		})
	}
	return out, nil
}
