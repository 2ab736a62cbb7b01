package api

import (
	"strconv"
	"strings"
	"time"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/ingest"
	"stablecoin-risk-monitor/internal/metrics"
)

// RunResponse describes one scoring run.
type RunResponse struct {
	RunID            string    `json:"run_id"`
	InputDigest      string    `json:"input_digest"`
	PolicyDigest     string    `json:"policy_digest"`
	TransactionCount int       `json:"transaction_count"`
	WalletCount      int       `json:"wallet_count"`
	AlertCount       int       `json:"alert_count"`
	CacheHit         bool      `json:"cache_hit"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func newRunResponse(r *domain.ScoringRun) RunResponse {
	return RunResponse{
		RunID:            r.RunID,
		InputDigest:      r.InputDigest,
		PolicyDigest:     r.PolicyDigest,
		TransactionCount: r.TransactionCount,
		WalletCount:      r.WalletCount,
		AlertCount:       r.AlertCount,
		CacheHit:         r.CacheHit,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
	}
}

// ScoreRow is one scored transaction on the wire.
type ScoreRow struct {
	TxID               string  `json:"tx_id"`
	Date               string  `json:"date,omitempty"`
	Hour               *int    `json:"hour,omitempty"`
	Token              string  `json:"token"`
	WalletID           string  `json:"wallet_id"`
	VolumeUSD          float64 `json:"volume_usd"`
	Sanctioned         bool    `json:"sanctioned"`
	VolumeScore        float64 `json:"volume_score"`
	TokenProfileScore  float64 `json:"token_profile_score"`
	ConcentrationScore float64 `json:"concentration_score"`
	VelocityScore      float64 `json:"velocity_score"`
	SanctionsScore     float64 `json:"sanctions_score"`
	BurstScore         float64 `json:"burst_score"`
	TimeScore          float64 `json:"time_score"`
	RiskScore          float64 `json:"risk_score"`
}

func newScoreRows(scored []domain.ScoredTransaction) []ScoreRow {
	rows := make([]ScoreRow, len(scored))
	for i := range scored {
		st := &scored[i]
		row := ScoreRow{
			TxID:               st.TxID,
			Hour:               st.Hour,
			Token:              st.Token,
			WalletID:           st.WalletID,
			VolumeUSD:          st.VolumeUSD,
			Sanctioned:         st.Sanctioned,
			VolumeScore:        st.Scores.Volume,
			TokenProfileScore:  st.Scores.TokenProfile,
			ConcentrationScore: st.Scores.Concentration,
			VelocityScore:      st.Scores.Velocity,
			SanctionsScore:     st.Scores.Sanctions,
			BurstScore:         st.Scores.Burst,
			TimeScore:          st.Scores.Time,
			RiskScore:          st.Scores.Risk,
		}
		if !st.Date.IsZero() {
			row.Date = st.Date.Format(domain.DateLayout)
		}
		rows[i] = row
	}
	return rows
}

// WalletRow is one wallet summary on the wire.
type WalletRow struct {
	WalletID         string  `json:"wallet_id"`
	TransactionCount int     `json:"tx_count"`
	TotalVolume      float64 `json:"total_volume_usd"`
	AverageRisk      float64 `json:"avg_risk_score"`
	MaxRisk          float64 `json:"max_risk_score"`
	SanctionedVolume float64 `json:"sanctioned_volume_usd"`
	HasSanctions     bool    `json:"has_sanctions"`
}

func newWalletRows(wallets []metrics.WalletSummary) []WalletRow {
	rows := make([]WalletRow, len(wallets))
	for i, w := range wallets {
		rows[i] = WalletRow{
			WalletID:         w.WalletID,
			TransactionCount: w.TransactionCount,
			TotalVolume:      w.TotalVolume,
			AverageRisk:      w.AverageRisk,
			MaxRisk:          w.MaxRisk,
			SanctionedVolume: w.SanctionedVolume,
			HasSanctions:     w.HasSanctions,
		}
	}
	return rows
}

type keyFiguresResponse struct {
	TotalVolume        float64 `json:"total_volume_usd"`
	WalletCount        int     `json:"wallet_count"`
	TransactionCount   int     `json:"transaction_count"`
	AverageRisk        float64 `json:"avg_risk_score"`
	MedianRisk         float64 `json:"median_risk_score"`
	P90Risk            float64 `json:"p90_risk_score"`
	MaxRisk            float64 `json:"max_risk_score"`
	SanctionedVolume   float64 `json:"sanctioned_volume_usd"`
	SanctionedSharePct float64 `json:"sanctioned_share_pct"`
	FlaggedWallets     int     `json:"flagged_wallets"`
}

type tokenAveragesResponse struct {
	Token         string  `json:"token"`
	Transactions  int     `json:"tx_count"`
	Volume        float64 `json:"volume_score"`
	TokenProfile  float64 `json:"token_profile_score"`
	Concentration float64 `json:"concentration_score"`
	Velocity      float64 `json:"velocity_score"`
	Sanctions     float64 `json:"sanctions_score"`
	Burst         float64 `json:"burst_score"`
	Time          float64 `json:"time_score"`
	Risk          float64 `json:"risk_score"`
}

type tokenVolumeResponse struct {
	Token  string  `json:"token"`
	Volume float64 `json:"volume_usd"`
}

type dailyFlowResponse struct {
	Date             string  `json:"date"`
	CleanVolume      float64 `json:"clean_volume_usd"`
	SanctionedVolume float64 `json:"sanctioned_volume_usd"`
}

type flaggedWalletResponse struct {
	WalletID               string  `json:"wallet_id"`
	SanctionedVolume       float64 `json:"sanctioned_volume_usd"`
	SanctionedTransactions int     `json:"sanctioned_tx_count"`
}

type bucketResponse struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// SummaryResponse is the dashboard of the latest run.
type SummaryResponse struct {
	Run                 RunResponse             `json:"run"`
	KeyFigures          keyFiguresResponse      `json:"key_figures"`
	TopByAverageRisk    []WalletRow             `json:"top_by_average_risk"`
	TopSanctionsExposed []WalletRow             `json:"top_sanctions_exposed"`
	TopWhales           []WalletRow             `json:"top_whales"`
	FlaggedWallets      []flaggedWalletResponse `json:"flagged_wallets"`
	TokenAverages       []tokenAveragesResponse `json:"token_averages"`
	VolumeByToken       []tokenVolumeResponse   `json:"volume_by_token"`
	SanctionedByToken   []tokenVolumeResponse   `json:"sanctioned_by_token"`
	DailyFlows          []dailyFlowResponse     `json:"daily_flows"`
	RiskHistogram       []bucketResponse        `json:"risk_histogram"`
}

func newSummaryResponse(d *metrics.Dashboard, run *domain.ScoringRun) SummaryResponse {
	kf := d.KeyFigures
	resp := SummaryResponse{
		Run: newRunResponse(run),
		KeyFigures: keyFiguresResponse{
			TotalVolume:        kf.TotalVolume,
			WalletCount:        kf.WalletCount,
			TransactionCount:   kf.TransactionCount,
			AverageRisk:        kf.AverageRisk,
			MedianRisk:         kf.MedianRisk,
			P90Risk:            kf.P90Risk,
			MaxRisk:            kf.MaxRisk,
			SanctionedVolume:   kf.SanctionedVolume,
			SanctionedSharePct: kf.SanctionedSharePct,
			FlaggedWallets:     kf.FlaggedWallets,
		},
		TopByAverageRisk:    newWalletRows(d.TopByAverageRisk),
		TopSanctionsExposed: newWalletRows(d.TopSanctionsExposed),
		TopWhales:           newWalletRows(d.TopWhales),
		FlaggedWallets:      make([]flaggedWalletResponse, len(d.FlaggedWallets)),
		TokenAverages:       make([]tokenAveragesResponse, len(d.TokenAverages)),
		VolumeByToken:       newTokenVolumes(d.VolumeByToken),
		SanctionedByToken:   newTokenVolumes(d.SanctionedByToken),
		DailyFlows:          make([]dailyFlowResponse, len(d.DailyFlows)),
		RiskHistogram:       make([]bucketResponse, len(d.RiskHistogram)),
	}
	for i, fw := range d.FlaggedWallets {
		resp.FlaggedWallets[i] = flaggedWalletResponse(fw)
	}
	for i, ta := range d.TokenAverages {
		resp.TokenAverages[i] = tokenAveragesResponse(ta)
	}
	for i, df := range d.DailyFlows {
		resp.DailyFlows[i] = dailyFlowResponse{
			Date:             df.Date.Format(domain.DateLayout),
			CleanVolume:      df.CleanVolume,
			SanctionedVolume: df.SanctionedVolume,
		}
	}
	for i, b := range d.RiskHistogram {
		resp.RiskHistogram[i] = bucketResponse(b)
	}
	return resp
}

func newTokenVolumes(tv []metrics.TokenVolume) []tokenVolumeResponse {
	out := make([]tokenVolumeResponse, len(tv))
	for i, v := range tv {
		out[i] = tokenVolumeResponse(v)
	}
	return out
}

// ScoreRequestRow is one input row of POST /api/v1/score. Token, wallet_id
// and volume_usd are required.
type ScoreRequestRow struct {
	Date       string   `json:"date"` // YYYY-MM-DD, optional
	Hour       *int     `json:"hour"`
	Token      string   `json:"token"`
	WalletID   string   `json:"wallet_id"`
	VolumeUSD  *float64 `json:"volume_usd"`
	Sanctioned Flag     `json:"sanctioned"`
}

// Flag decodes a sanctions flag given as a JSON boolean, 0/1, or a string
// form of either. null and absent mean false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = false
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	v, err := ingest.ParseFlag(raw)
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// ScoreRequest is the body of POST /api/v1/score.
type ScoreRequest struct {
	Transactions []ScoreRequestRow `json:"transactions"`
}

// ScoreResponse returns scored rows with the policy digest used.
type ScoreResponse struct {
	PolicyDigest string     `json:"policy_digest"`
	Scores       []ScoreRow `json:"scores"`
}
