package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthStatus describes which backends are usable.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	Auth     string `json:"auth"`
}

type HealthHandler struct {
	db             *gorm.DB
	storageEnabled bool
	authEnabled    bool
}

func NewHealthHandler(db *gorm.DB, storageEnabled, authEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, storageEnabled: storageEnabled, authEnabled: authEnabled}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
}

// Health reports whether the process is running degraded
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := HealthStatus{
		Status:   "ok",
		Database: h.pingDatabase(c.Request.Context()),
		Storage:  enabled(h.storageEnabled),
		Auth:     enabled(h.authEnabled),
	}
	if status.Database != "ok" || !h.storageEnabled || !h.authEnabled {
		status.Status = "degraded"
	}
	c.JSON(http.StatusOK, status)
}

func (h *HealthHandler) pingDatabase(ctx context.Context) string {
	if h.db == nil {
		return "unconfigured"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "unavailable"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}

func enabled(v bool) string {
	if v {
		return "ok"
	}
	return "disabled"
}
