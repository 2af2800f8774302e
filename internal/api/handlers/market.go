package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"dayahead-market/internal/api/models"
	"dayahead-market/internal/clearing"
	"dayahead-market/internal/config"
	"dayahead-market/internal/data"
	"dayahead-market/internal/model"
	"dayahead-market/internal/simulation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMarketID = "market"

// MarketHandler clears and couples markets posted by clients
type MarketHandler struct {
	cfg  *config.Config
	runs *data.RunCache[models.RunResponse]
	log  *zap.SugaredLogger
}

// NewMarketHandler creates a new market handler. Results are kept in runs
// so that clients can fetch them again.
func NewMarketHandler(cfg *config.Config, runs *data.RunCache[models.RunResponse], log *zap.SugaredLogger) *MarketHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MarketHandler{cfg: cfg, runs: runs, log: log}
}

// Clear handles POST /api/v1/clear
func (h *MarketHandler) Clear(c *gin.Context) {
	var req models.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	id := strings.TrimSpace(req.MarketID)
	if id == "" {
		id = defaultMarketID
	}

	engine, err := h.engine(req.Options, nil)
	if err != nil {
		badRequest(c, "INVALID_OPTIONS", err)
		return
	}
	step := model.Step{Markets: map[string]model.MarketBids{
		id: {Supply: req.Supply, Demand: req.Demand},
	}}
	h.run(c, "clear", engine, step)
}

// Couple handles POST /api/v1/couple
func (h *MarketHandler) Couple(c *gin.Context) {
	var req models.CoupleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	engine, err := h.engine(req.Options.ClearingOptions, &req.Options)
	if err != nil {
		badRequest(c, "INVALID_OPTIONS", err)
		return
	}
	h.run(c, "couple", engine, model.Step{Markets: req.Markets, Links: req.Links})
}

// GetRun handles GET /api/v1/runs/:id
func (h *MarketHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "INVALID_ID", err)
		return
	}
	resp, ok := h.runs.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "run " + id + " not found or expired",
			},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// engine builds a simulation engine for one request from the server config
// and the request's overrides. Coupling is off unless couple is set.
func (h *MarketHandler) engine(opts models.ClearingOptions, couple *models.CouplingOptions) (*simulation.Engine, error) {
	cfg := *h.cfg
	if opts.DistributionMethod != "" {
		cfg.Clearing.DistributionMethod = opts.DistributionMethod
	}
	if opts.ShortagePrice != "" {
		cfg.Clearing.ShortagePrice = opts.ShortagePrice
	}
	if opts.Seed != nil {
		cfg.Clearing.Seed = *opts.Seed
	}

	enabled := couple != nil
	cfg.Coupling.Enabled = &enabled
	if couple != nil {
		if couple.MinDemandOffsetMWh != 0 {
			cfg.Coupling.MinDemandOffsetMWh = couple.MinDemandOffsetMWh
		}
		if couple.MinShiftIncrementMWh != 0 {
			cfg.Coupling.MinShiftIncrementMWh = couple.MinShiftIncrementMWh
		}
	}
	return simulation.NewFromConfig(&cfg, h.log)
}

func (h *MarketHandler) run(c *gin.Context, kind string, engine *simulation.Engine, step model.Step) {
	sr, rows, err := engine.RunStep(0, step, nil)
	if err != nil {
		status, code := classify(err)
		h.log.Warnw("run failed", "kind", kind, "code", code, "error", err)
		c.JSON(status, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	resp := buildRunResponse(kind, sr, rows)
	h.runs.Set(resp.ID, resp)
	h.log.Infow("run stored", "id", resp.ID, "kind", kind, "markets", len(resp.Markets), "shifts", len(resp.Shifts))
	c.JSON(http.StatusOK, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNegativeEnergy), errors.Is(err, model.ErrUnknownSide):
		return http.StatusBadRequest, "INVALID_OFFER"
	case errors.Is(err, simulation.ErrInvalidLink):
		return http.StatusBadRequest, "INVALID_LINK"
	case errors.Is(err, clearing.ErrNonPositiveDemand):
		return http.StatusUnprocessableEntity, "NO_DEMAND"
	default:
		return http.StatusUnprocessableEntity, "CLEARING_ERROR"
	}
}

func buildRunResponse(kind string, sr simulation.StepResult, rows []simulation.LedgerRow) models.RunResponse {
	resp := models.RunResponse{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Coupled:   sr.Coupled,
		Markets:   make([]models.MarketResult, 0, len(sr.Markets)),
		Links:     sr.Links,
		Shifts:    sr.Shifts,
		Awards:    make([]models.Award, 0, len(rows)),
	}
	for _, m := range sr.Markets {
		resp.Markets = append(resp.Markets, models.MarketResult{
			MarketID:                m.MarketID,
			PriceEURperMWh:          m.PriceEURperMWh,
			UncoupledPriceEURperMWh: m.UncoupledPriceEURperMWh,
			TradedEnergyMWh:         m.TradedEnergyMWh,
			SystemCostEUR:           m.SystemCostEUR,
			ShortageMWh:             m.ShortageMWh,
			ImportedMWh:             m.ImportedMWh,
			ExportedMWh:             m.ExportedMWh,
		})
	}
	for _, r := range rows {
		a := models.Award{
			MarketID:   r.Market,
			TraderID:   r.Trader,
			Side:       string(r.Side),
			OfferedMWh: r.OfferedMWh,
			Price:      r.BidPriceEURperMWh,
			AwardedMWh: r.AwardedMWh,
		}
		if !math.IsNaN(r.MarginalCostEURperMWh) {
			mc := r.MarginalCostEURperMWh
			a.MarginalCost = &mc
		}
		resp.Awards = append(resp.Awards, a)
	}
	return resp
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
