package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stablecoin-risk-monitor/internal/domain"
)

// Filter narrows a scored table before aggregation.
// Empty Tokens matches every token. Zero From/To leave that side unbounded.
// When either bound is set, undated rows are excluded.
type Filter struct {
	Tokens []string
	From   time.Time
	To     time.Time
}

// ErrInvalidFilter is returned for unparsable dates or an inverted range.
var ErrInvalidFilter = errors.New("invalid filter")

// ParseFilter builds a Filter from user input. Each token entry may hold a
// comma separated list. Dates use domain.DateLayout; empty leaves the side open.
func ParseFilter(tokens []string, from, to string) (Filter, error) {
	var f Filter
	for _, raw := range tokens {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				f.Tokens = append(f.Tokens, item)
			}
		}
	}

	var err error
	if from = strings.TrimSpace(from); from != "" {
		if f.From, err = time.Parse(domain.DateLayout, from); err != nil {
			return Filter{}, fmt.Errorf("%w: from %q: %v", ErrInvalidFilter, from, err)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if f.To, err = time.Parse(domain.DateLayout, to); err != nil {
			return Filter{}, fmt.Errorf("%w: to %q: %v", ErrInvalidFilter, to, err)
		}
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate rejects a range whose start is after its end.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && dayOf(f.From).After(dayOf(f.To)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidFilter,
			f.From.Format(domain.DateLayout), f.To.Format(domain.DateLayout))
	}
	return nil
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return len(f.Tokens) == 0 && f.From.IsZero() && f.To.IsZero()
}

// Match reports whether tx passes the filter. Date bounds compare whole days.
func (f Filter) Match(tx *domain.Transaction) bool {
	if len(f.Tokens) > 0 {
		found := false
		for _, token := range f.Tokens {
			if token == tx.Token {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if tx.Date.IsZero() {
		return false
	}
	d := dayOf(tx.Date)
	if !f.From.IsZero() && d.Before(dayOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(dayOf(f.To)) {
		return false
	}
	return true
}

// Apply returns the rows matching f, in input order.
func Apply(scored []domain.ScoredTransaction, f Filter) []domain.ScoredTransaction {
	if f.IsZero() {
		return scored
	}
	result := make([]domain.ScoredTransaction, 0, len(scored))
	for i := range scored {
		if f.Match(&scored[i].Transaction) {
			result = append(result, scored[i])
		}
	}
	return result
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
