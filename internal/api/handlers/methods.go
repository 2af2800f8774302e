package handlers

import (
	"net/http"

	"dayahead-market/internal/api/models"
	"dayahead-market/internal/book"
	"dayahead-market/internal/clearing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MethodsHandler lists the clearing settings a request may choose from
type MethodsHandler struct {
	defaultMethod string
	log           *zap.SugaredLogger
}

func NewMethodsHandler(defaultMethod string, log *zap.SugaredLogger) *MethodsHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MethodsHandler{defaultMethod: defaultMethod, log: log}
}

var methodInfo = map[book.DistributionMethod]models.MethodInfo{
	book.FirstComeFirstServe: {
		Aliases:     []string{"FCFS"},
		Description: "Price-setting offers are filled in book order until the leftover energy is used up.",
	},
	book.Randomize: {
		Aliases:     []string{"RANDOM"},
		Description: "Price-setting offers are shuffled, then filled in that order.",
	},
	book.ProRata: {
		Aliases:     []string{"PRO_RATA"},
		Description: "Every price-setting offer gets the same share of its energy.",
	},
}

// ListDistributionMethods handles GET /api/v1/distribution-methods
func (h *MethodsHandler) ListDistributionMethods(c *gin.Context) {
	resp := models.MethodsResponse{Default: h.defaultMethod}
	for _, m := range book.DistributionMethods() {
		info := methodInfo[m]
		info.Name = string(m)
		resp.DistributionMethods = append(resp.DistributionMethods, info)
	}
	resp.ShortagePrices = []models.MethodInfo{
		{
			Name:        string(clearing.ScarcityPrice),
			Description: "Unserved demand keeps the price found by the clearing.",
		},
		{
			Name:        string(clearing.LastSupplyPrice),
			Description: "Unserved demand sets the price to the most expensive supply offer.",
		},
	}
	h.log.Debugw("listing distribution methods", "count", len(resp.DistributionMethods))
	c.JSON(http.StatusOK, resp)
}
