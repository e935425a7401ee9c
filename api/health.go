package api

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/obsandbox/paygate/cache"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components"`
}

var startTime = time.Now()

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func CreateHealthHandler(db *gorm.DB, redisCache *cache.RedisCache) *HealthHandler {
	return &HealthHandler{db: db, cache: redisCache}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	status := "healthy"

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			components["database"] = "unreachable"
			status = "degraded"
		} else {
			components["database"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.Client().Ping(r.Context()).Err(); err != nil {
			components["redis"] = "unreachable"
			status = "degraded"
		} else {
			components["redis"] = "ok"
		}
	} else {
		components["redis"] = "disabled"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(startTime).String(),
		Components: components,
	})
}
