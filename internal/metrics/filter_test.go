package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestFilter_Match(t *testing.T) {
	rows := fixture()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"zero filter", Filter{}, 5},
		{"token", Filter{Tokens: []string{"USDC"}}, 2},
		{"two tokens", Filter{Tokens: []string{"USDC", "USDT"}}, 5},
		{"unknown token", Filter{Tokens: []string{"DAI"}}, 0},
		{"from inclusive", Filter{From: day(2)}, 3},
		{"to inclusive", Filter{To: day(2)}, 3},
		{"single day", Filter{From: day(3), To: day(3)}, 2},
		{"token and range", Filter{Tokens: []string{"USDT"}, From: day(2), To: day(3)}, 2},
		{"time of day ignored", Filter{To: day(1).Add(23 * time.Hour)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(rows, tt.filter)
			if len(got) != tt.want {
				t.Errorf("expected %d rows, got %d", tt.want, len(got))
			}
		})
	}
}

func TestFilter_UndatedRows(t *testing.T) {
	undated := row("X", "USDT", 0, 10, 10, false)

	if !(Filter{}).Match(&undated.Transaction) {
		t.Error("zero filter should match undated rows")
	}
	if (Filter{From: day(1)}).Match(&undated.Transaction) {
		t.Error("date-bounded filter should exclude undated rows")
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"USDT, USDC", "DAI", ""}, "2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatalf("ParseFilter failed: %v", err)
	}
	if len(f.Tokens) != 3 || f.Tokens[0] != "USDT" || f.Tokens[2] != "DAI" {
		t.Errorf("unexpected tokens %v", f.Tokens)
	}
	if !f.From.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from %v", f.From)
	}

	empty, err := ParseFilter(nil, "", "")
	if err != nil || !empty.IsZero() {
		t.Errorf("expected zero filter, got %+v, %v", empty, err)
	}

	same, err := ParseFilter(nil, "2025-10-02", "2025-10-02")
	if err != nil || same.From.IsZero() {
		t.Errorf("expected single-day range to be valid, got %v", err)
	}

	for _, tc := range []struct{ from, to string }{
		{"10/01/2025", ""},
		{"", "tomorrow"},
		{"2025-10-03", "2025-10-01"},
	} {
		if _, err := ParseFilter(nil, tc.from, tc.to); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("from=%q to=%q: expected ErrInvalidFilter, got %v", tc.from, tc.to, err)
		}
	}
}
