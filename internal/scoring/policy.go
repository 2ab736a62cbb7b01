package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"stablecoin-risk-monitor/internal/domain"
)

// Weights are the linear blend coefficients applied to component scores.
// They must be non-negative and sum to at most 1 so the base score stays in [0, 100].
type Weights struct {
	Volume        float64 `json:"volume"`
	TokenProfile  float64 `json:"token_profile"`
	Concentration float64 `json:"concentration"`
	Velocity      float64 `json:"velocity"`
	Sanctions     float64 `json:"sanctions"`
	Burst         float64 `json:"burst"`
	Time          float64 `json:"time"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Volume + w.TokenProfile + w.Concentration + w.Velocity + w.Sanctions + w.Burst + w.Time
}

// Policy is the tunable part of the scoring model.
type Policy struct {
	Weights Weights `json:"weights"`

	// TokenBaselines maps a token symbol to its a-priori risk in [0, 100].
	TokenBaselines map[string]float64 `json:"token_baselines"`

	// DefaultTokenBaseline applies to symbols absent from TokenBaselines.
	DefaultTokenBaseline float64 `json:"default_token_baseline"`

	// SanctionsMultiplier enables the post-blend multiplier
	// 1 + log10(max(volume, 1)) / 2 for sanctioned transactions.
	SanctionsMultiplier bool `json:"sanctions_multiplier"`
}

// NeutralTokenBaseline is the documented default for unrecognised tokens.
const NeutralTokenBaseline = 50.0

// DefaultPolicy returns the reference scheme: six linear components, with
// sanctions applied as a volume-scaled multiplier rather than a linear term.
// Large sanctioned transfers saturate at 100 under this scheme.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Volume:        0.25,
			TokenProfile:  0.20,
			Concentration: 0.20,
			Velocity:      0.20,
			Sanctions:     0,
			Burst:         0.10,
			Time:          0.05,
		},
		TokenBaselines: map[string]float64{
			domain.TokenUSDT: 70,
			domain.TokenUSDC: 50,
			domain.TokenDAI:  55,
			domain.TokenUSDe: 60,
		},
		DefaultTokenBaseline: NeutralTokenBaseline,
		SanctionsMultiplier:  true,
	}
}

// LinearSanctionsPolicy returns the earlier five-component scheme where
// sanctions intensity is a linear term and burst/time are not blended.
func LinearSanctionsPolicy() Policy {
	p := DefaultPolicy()
	p.Weights = Weights{
		Volume:        0.25,
		TokenProfile:  0.20,
		Concentration: 0.20,
		Velocity:      0.20,
		Sanctions:     0.15,
	}
	p.SanctionsMultiplier = false
	return p
}

// weightTolerance absorbs float error when weights are written as decimals.
const weightTolerance = 1e-9

// Validate checks weight and baseline bounds.
func (p Policy) Validate() error {
	w := p.Weights
	for name, v := range map[string]float64{
		"volume":        w.Volume,
		"token_profile": w.TokenProfile,
		"concentration": w.Concentration,
		"velocity":      w.Velocity,
		"sanctions":     w.Sanctions,
		"burst":         w.Burst,
		"time":          w.Time,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %s = %v", ErrInvalidPolicy, name, v)
		}
	}
	if sum := w.Sum(); sum > 1+weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must be <= 1", ErrInvalidPolicy, sum)
	}
	if !inScoreRange(p.DefaultTokenBaseline) {
		return fmt.Errorf("%w: default token baseline %v", ErrInvalidPolicy, p.DefaultTokenBaseline)
	}
	for token, v := range p.TokenBaselines {
		if !inScoreRange(v) {
			return fmt.Errorf("%w: baseline for %s = %v", ErrInvalidPolicy, token, v)
		}
	}
	return nil
}

// TokenBaseline returns the baseline for a symbol, or the default when unknown.
func (p Policy) TokenBaseline(token string) float64 {
	if v, ok := p.TokenBaselines[token]; ok {
		return v
	}
	return p.DefaultTokenBaseline
}

// Digest returns a stable hex hash of the policy, used in memo cache keys.
// encoding/json sorts map keys, so equal policies hash equally.
func (p Policy) Digest() string {
	data, err := json.Marshal(p)
	if err != nil {
		// Policy holds only floats, bools and a string map.
		panic(fmt.Sprintf("marshal policy: %v", err))
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LoadPolicy reads a JSON policy. Fields absent from the document keep
// their DefaultPolicy values. The result is validated.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicyFile reads a JSON policy from path. An empty path returns
// DefaultPolicy.
func LoadPolicyFile(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()
	return LoadPolicy(f)
}

func inScoreRange(v float64) bool {
	return v >= 0 && v <= 100 && !math.IsNaN(v)
}
