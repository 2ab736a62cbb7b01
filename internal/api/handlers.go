package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/scoring"
	"stablecoin-risk-monitor/internal/storage"
)

// Limits for list endpoints.
const (
	DefaultScoresLimit = 100
	MaxScoresLimit     = 1000
	MaxTopLimit        = 100
	MaxScoreRequest    = 10000
)

// scoreRequestSource labels tx ids assigned to posted rows.
const scoreRequestSource = "api"

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	if s.status == nil {
		errorJSON(c, http.StatusNotFound, "no_scheduler", "no pipeline scheduler attached")
		return
	}
	c.JSON(http.StatusOK, s.status.Status())
}

func (s *Server) latestRunHandler(c *gin.Context) {
	run, err := s.aggregator.LatestRun(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

func (s *Server) summaryHandler(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	limit, err := parseLimit(c, metrics.DefaultTopN, MaxTopLimit)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	dashboard, run, err := s.aggregator.ComputeLatest(c.Request.Context(), f, limit)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(dashboard, run))
}

func (s *Server) scoresHandler(c *gin.Context) {
	limit, err := parseLimit(c, DefaultScoresLimit, MaxScoresLimit)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	ctx := c.Request.Context()
	run, err := s.aggregator.LatestRun(ctx)
	if err != nil {
		s.storeError(c, err)
		return
	}

	var scored []domain.ScoredTransaction
	if wallet := strings.TrimSpace(c.Query("wallet")); wallet != "" {
		scored, err = s.scores.GetByWallet(ctx, run.RunID, wallet)
	} else {
		scored, err = s.scores.GetByRun(ctx, run.RunID)
	}
	if err != nil {
		s.storeError(c, err)
		return
	}

	if tokens := queryList(c, "token"); len(tokens) > 0 {
		scored = metrics.Apply(scored, metrics.Filter{Tokens: tokens})
	}
	total := len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": run.RunID,
		"total":  total,
		"scores": newScoreRows(scored),
	})
}

func (s *Server) topWalletsHandler(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	limit, err := parseLimit(c, metrics.DefaultTopN, MaxTopLimit)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	by := c.DefaultQuery("by", "risk")
	var rank func([]metrics.WalletSummary, int) []metrics.WalletSummary
	switch by {
	case "risk":
		rank = metrics.TopByAverageRisk
	case "sanctions":
		rank = metrics.TopSanctionsExposed
	case "volume":
		rank = metrics.TopWhales
	default:
		errorJSON(c, http.StatusBadRequest, "invalid_ranking", fmt.Sprintf("by must be risk, sanctions or volume, got %q", by))
		return
	}

	ctx := c.Request.Context()
	run, err := s.aggregator.LatestRun(ctx)
	if err != nil {
		s.storeError(c, err)
		return
	}
	scored, err := s.scores.GetByRun(ctx, run.RunID)
	if err != nil {
		s.storeError(c, err)
		return
	}

	wallets := metrics.SummarizeWallets(metrics.Apply(scored, f))
	c.JSON(http.StatusOK, gin.H{
		"run_id":  run.RunID,
		"by":      by,
		"wallets": newWalletRows(rank(wallets, limit)),
	})
}

func (s *Server) scoreHandler(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Transactions) > MaxScoreRequest {
		errorJSON(c, http.StatusRequestEntityTooLarge, "too_many_rows",
			fmt.Sprintf("at most %d transactions per request", MaxScoreRequest))
		return
	}

	txs := make([]domain.Transaction, len(req.Transactions))
	for i, row := range req.Transactions {
		token := strings.TrimSpace(row.Token)
		if token == "" {
			errorJSON(c, http.StatusUnprocessableEntity, "invalid_transaction", fmt.Sprintf("row %d: token is required", i))
			return
		}
		if row.VolumeUSD == nil {
			errorJSON(c, http.StatusUnprocessableEntity, "invalid_transaction", fmt.Sprintf("row %d: volume_usd is required", i))
			return
		}
		tx := domain.Transaction{
			TxID:       idhash.ComputeTransactionID(scoreRequestSource, i),
			Hour:       row.Hour,
			Token:      token,
			WalletID:   strings.TrimSpace(row.WalletID),
			VolumeUSD:  *row.VolumeUSD,
			Sanctioned: bool(row.Sanctioned),
		}
		if row.Date != "" {
			d, err := time.Parse(domain.DateLayout, row.Date)
			if err != nil {
				errorJSON(c, http.StatusBadRequest, "invalid_date", fmt.Sprintf("row %d: %v", i, err))
				return
			}
			tx.Date = d
		}
		txs[i] = tx
	}

	scored, err := s.scorer.Score(txs)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidHour) ||
			errors.Is(err, scoring.ErrInvalidVolume) ||
			errors.Is(err, scoring.ErrMissingWallet) {
			errorJSON(c, http.StatusUnprocessableEntity, "invalid_transaction", err.Error())
			return
		}
		s.logger.WithError(err).Error("score request")
		errorJSON(c, http.StatusInternalServerError, "internal_error", "scoring failed")
		return
	}

	c.JSON(http.StatusOK, ScoreResponse{
		PolicyDigest: s.scorer.Policy().Digest(),
		Scores:       newScoreRows(scored),
	})
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, metrics.ErrNoRuns):
		errorJSON(c, http.StatusNotFound, "no_runs", "no scoring run has completed yet")
	case errors.Is(err, storage.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.WithError(err).Error("store query failed")
		errorJSON(c, http.StatusInternalServerError, "internal_error", "store query failed")
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

// parseFilter reads token (repeatable or comma separated), from and to.
func parseFilter(c *gin.Context) (metrics.Filter, error) {
	return metrics.ParseFilter(c.QueryArray("token"), c.Query("from"), c.Query("to"))
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func parseLimit(c *gin.Context, def, maxN int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if n > maxN {
		n = maxN
	}
	return n, nil
}
