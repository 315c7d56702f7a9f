package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitchenlog/recipebox/internal/adapters/api"
)

type HealthHandler struct {
	*BaseHandler
	pool *pgxpool.Pool // For readiness check
}

func NewHealthHandler(base *BaseHandler, pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		pool:        pool,
	}
}

// GetLiveness implements the liveness probe endpoint
// This is a lightweight check with no external dependencies
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONResponse(w, r, api.HealthResponse{Status: "healthy"}, http.StatusOK)
}

// GetReadiness implements the readiness probe endpoint
// This checks database connectivity
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	database := "up"
	httpStatus := http.StatusOK

	if err := h.pool.Ping(ctx); err != nil {
		status = "unhealthy"
		database = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	h.WriteJSONResponse(w, r, api.HealthResponse{
		Status:   status,
		Database: &database,
	}, httpStatus)
}
