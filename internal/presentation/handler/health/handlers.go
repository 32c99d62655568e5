package health

import (
	"context"
	"net/http"
	"time"

	"github.com/wooyoung-dev/petmeet/internal/infrastructure/json"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

var startTime = time.Now()

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type Handler struct {
	mongo *mongo.Client
	db    *gorm.DB
}

func NewHandler(mongoClient *mongo.Client, db *gorm.DB) *Handler {
	return &Handler{mongo: mongoClient, db: db}
}

// GetLiveness answers whether the process is up, without touching any
// dependency.
func (h *Handler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}

// GetReadiness pings both event stores. A failed ping answers 503 so the
// orchestrator routes traffic elsewhere until the stores recover.
func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"mongo":    "up",
		"postgres": "up",
	}
	status := http.StatusOK

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		checks["mongo"] = "down"
		status = http.StatusServiceUnavailable
	}

	if sqlDB, err := h.db.DB(); err != nil {
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	}

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks:    checks,
	}
	if status != http.StatusOK {
		resp.Status = "unhealthy"
	}

	json.Write(w, status, resp)
}
