package discovery

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/bounty-hunter/internal/application"
	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/discovery"
)

// DefaultQueries are the disjoint search variants used to find Solana
// programs worth auditing.
var DefaultQueries = []string{
	"language:rust solana program stars:>50",
	"language:rust solana smart contract stars:>50",
	"language:rust solana anchor stars:>50",
	"topic:solana language:rust stars:>50",
	"spl-token language:rust stars:>50",
}

// DefaultExcluded lists repositories that are already audited or too
// large to be worth a pass.
var DefaultExcluded = []string{
	"solana-labs/solana",
	"solana-labs/solana-program-library",
}

var solanaKeywords = []string{"solana", "spl", "anchor", "sealevel"}

// priorityKeywords add 2 points each when present in the description.
var priorityKeywords = []string{"token", "defi", "lending", "dex", "amm", "staking", "governance"}

const searchPageSize = 30

// Options bound one discovery pass.
type Options struct {
	MaxRepos        int
	MinStars        int
	DaysSinceUpdate int
}

func (o *Options) defaults() {
	if o.MaxRepos <= 0 {
		o.MaxRepos = 10
	}
	if o.MinStars <= 0 {
		o.MinStars = 50
	}
	if o.DaysSinceUpdate <= 0 {
		o.DaysSinceUpdate = 7
	}
}

// Service ranks raw search results into a deduplicated audit queue.
type Service struct {
	Provider domain.Provider
	Queries  []string
	Excluded []string
	Clock    application.Clock
}

func NewService(provider domain.Provider, clock application.Clock) *Service {
	return &Service{
		Provider: provider,
		Queries:  DefaultQueries,
		Excluded: DefaultExcluded,
		Clock:    clock,
	}
}

// Discover runs every query, deduplicates by repository id (first
// occurrence wins), admits candidates through the filter, scores them,
// and returns the top MaxRepos by priority. A failing query contributes
// zero results; the pass continues with whatever the other queries found.
func (s *Service) Discover(ctx context.Context, opts Options) ([]domain.Candidate, error) {
	opts.defaults()

	since := s.Clock.Now().AddDate(0, 0, -opts.DaysSinceUpdate).Format("2006-01-02")
	seen := make(map[int64]struct{})
	var discovered []domain.Candidate

	for _, query := range s.Queries {
		filtered := query + " pushed:>" + since

		reposFound, err := s.Provider.Search(ctx, filtered, searchPageSize)
		if err != nil {
			log.Printf("discovery: query %q failed: %v", filtered, err)
			continue
		}

		for i := range reposFound {
			r := &reposFound[i]
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}

			if !s.shouldAudit(r, opts.MinStars) {
				continue
			}
			discovered = append(discovered, domain.Candidate{
				ID:            r.ID,
				Name:          r.Name,
				FullName:      r.FullName,
				Owner:         r.Owner,
				URL:           r.HTMLURL,
				CloneURL:      r.CloneURL,
				Stars:         r.Stars,
				Forks:         r.Forks,
				Language:      r.Language,
				Description:   r.Description,
				Topics:        r.Topics,
				UpdatedAt:     r.UpdatedAt,
				CreatedAt:     r.CreatedAt,
				AuditPriority: s.Priority(r),
			})
			if len(discovered) >= opts.MaxRepos {
				break
			}
		}
		if len(discovered) >= opts.MaxRepos {
			break
		}
	}

	sort.SliceStable(discovered, func(i, j int) bool {
		return discovered[i].AuditPriority > discovered[j].AuditPriority
	})
	if len(discovered) > opts.MaxRepos {
		discovered = discovered[:opts.MaxRepos]
	}
	return discovered, nil
}

// shouldAudit is the admission filter: star floor, static exclusion
// list, archived flag, and the Solana-project heuristic.
func (s *Service) shouldAudit(r *domain.Repo, minStars int) bool {
	if r.Stars < minStars {
		return false
	}
	for _, excluded := range s.Excluded {
		if r.FullName == excluded {
			return false
		}
	}
	if !isSolanaProject(r) {
		return false
	}
	if r.Archived {
		return false
	}
	return true
}

// isSolanaProject matches on description keywords, topic tags, or the
// primary language.
func isSolanaProject(r *domain.Repo) bool {
	description := strings.ToLower(r.Description)
	for _, kw := range solanaKeywords {
		if strings.Contains(description, kw) {
			return true
		}
	}
	for _, topic := range r.Topics {
		topic = strings.ToLower(topic)
		for _, kw := range solanaKeywords {
			if topic == kw {
				return true
			}
		}
	}
	return r.Language == "Rust"
}

// Priority computes the 0-100 audit priority: capped star and fork
// contributions, a recency tier, and 2 points per domain keyword in the
// description. A malformed update timestamp contributes nothing.
func (s *Service) Priority(r *domain.Repo) int {
	var score float64

	// Stars (up to 40 points)
	score += math.Min(float64(r.Stars)/100, 40)

	// Recent activity (up to 30 points)
	if r.UpdatedAt != "" {
		if updated, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
			daysSince := int(s.Clock.Now().Sub(updated).Hours() / 24)
			switch {
			case daysSince < 7:
				score += 30
			case daysSince < 30:
				score += 20
			case daysSince < 90:
				score += 10
			}
		}
	}

	// Forks indicate usage (up to 20 points)
	score += math.Min(float64(r.Forks)/20, 20)

	// Domain keywords (2 points each). The raw sum can nudge past 100
	// when every term maxes out, so clamp to the documented scale.
	description := strings.ToLower(r.Description)
	for _, kw := range priorityKeywords {
		if strings.Contains(description, kw) {
			score += 2
		}
	}

	return int(math.Min(score, 100))
}
