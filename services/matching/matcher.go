package matching

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"mediq/database/repository"
	"mediq/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const matchCachePrefix = "match:"

// Matcher ranks doctors against a set of normalized symptom tokens.
type Matcher interface {
	// Match returns candidates ordered by score descending. An empty result
	// is a valid outcome, not an error: it means no rule token intersected.
	Match(ctx context.Context, tokens []string) ([]models.RankedDoctor, error)
}

// DefaultMatcher scores specialties by symptom-rule weight and breaks ties
// by current booking load, then doctor id.
type DefaultMatcher struct {
	DoctorRepo  repository.DoctorRepository
	SlotRepo    repository.SlotRepository
	CacheClient *redis.Client
	Rules       []models.SymptomRule
	WindowDays  int
	CacheTTL    time.Duration
	Now         func() time.Time
	Logger      *zap.Logger
}

func (m *DefaultMatcher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Match implements Matcher.
func (m *DefaultMatcher) Match(ctx context.Context, tokens []string) ([]models.RankedDoctor, error) {
	if len(tokens) == 0 {
		return []models.RankedDoctor{}, nil
	}

	cacheKey := matchCacheKey(tokens)
	if m.CacheClient != nil {
		if cached, err := m.CacheClient.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var ranked []models.RankedDoctor
			if err := json.Unmarshal([]byte(cached), &ranked); err == nil {
				return ranked, nil
			}
			// Unreadable cache entry; recompute.
		}
	}

	weights := m.specialtyWeights(tokens)
	if len(weights) == 0 {
		return []models.RankedDoctor{}, nil
	}

	type scoredDoctor struct {
		ranked models.RankedDoctor
		load   int64
	}
	var scored []scoredDoctor

	for specialty, weight := range weights {
		doctors, err := m.DoctorRepo.ListBySpecialty(ctx, specialty)
		if err != nil {
			return nil, fmt.Errorf("failed to list doctors for specialty %s: %w", specialty, err)
		}
		for _, d := range doctors {
			load, err := m.SlotRepo.CountBooked(ctx, d.ID, m.windowDates())
			if err != nil {
				return nil, fmt.Errorf("failed to count bookings for doctor %s: %w", d.ID, err)
			}
			scored = append(scored, scoredDoctor{
				ranked: models.RankedDoctor{
					DoctorID:  d.ID,
					Name:      d.Name,
					Specialty: d.Specialty,
					Score:     weight,
				},
				load: load,
			})
		}
	}

	// Tie-break order: score desc, booked load asc, doctor id asc.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].ranked.Score != scored[j].ranked.Score {
			return scored[i].ranked.Score > scored[j].ranked.Score
		}
		if scored[i].load != scored[j].load {
			return scored[i].load < scored[j].load
		}
		return scored[i].ranked.DoctorID < scored[j].ranked.DoctorID
	})

	ranked := make([]models.RankedDoctor, 0, len(scored))
	for _, s := range scored {
		ranked = append(ranked, s.ranked)
	}

	if m.CacheClient != nil {
		if data, err := json.Marshal(ranked); err == nil {
			if err := m.CacheClient.Set(ctx, cacheKey, data, m.CacheTTL).Err(); err != nil && m.Logger != nil {
				m.Logger.Warn("failed to cache match result", zap.Error(err))
			}
		}
	}
	return ranked, nil
}

// specialtyWeights accumulates rule weights for every rule whose token set
// intersects the input tokens.
func (m *DefaultMatcher) specialtyWeights(tokens []string) map[models.Specialty]float64 {
	input := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		input[t] = true
	}

	weights := make(map[models.Specialty]float64)
	for _, rule := range m.Rules {
		for _, rt := range rule.Tokens {
			if input[rt] {
				weights[rule.Specialty] += rule.Weight
				break
			}
		}
	}
	return weights
}

// windowDates returns the date strings for the load-balancing window
// starting today.
func (m *DefaultMatcher) windowDates() []string {
	days := m.WindowDays
	if days <= 0 {
		days = 7
	}
	now := m.now()
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, now.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

func matchCacheKey(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	sum := sha1.Sum([]byte(strings.Join(sorted, " ")))
	return fmt.Sprintf("%s%x", matchCachePrefix, sum)
}
