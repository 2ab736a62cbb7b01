package domain

// ComponentScores holds the seven component scores and the blended risk score.
// Every field is in [0, 100].
type ComponentScores struct {
	Volume        float64 // volume_score
	TokenProfile  float64 // token_profile_score
	Concentration float64 // concentration_score
	Velocity      float64 // velocity_score
	Sanctions     float64 // sanctions_score
	Burst         float64 // burst_score
	Time          float64 // time_score
	Risk          float64 // risk_score
}

// ScoredTransaction is a transaction enriched with its scores.
type ScoredTransaction struct {
	Transaction
	Scores ComponentScores
}

// Canonical score field names. Renderers may relabel them for display.
const (
	FieldVolumeScore        = "volume_score"
	FieldTokenProfileScore  = "token_profile_score"
	FieldConcentrationScore = "concentration_score"
	FieldVelocityScore      = "velocity_score"
	FieldSanctionsScore     = "sanctions_score"
	FieldBurstScore         = "burst_score"
	FieldTimeScore          = "time_score"
	FieldRiskScore          = "risk_score"
)
