package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PageHandler serves the built single-page app. Every page route gets
// index.html; the client router takes it from there.
type PageHandler struct {
	index string
}

func NewPageHandler(staticDir string) *PageHandler {
	return &PageHandler{index: filepath.Join(staticDir, "index.html")}
}

func (h *PageHandler) Serve(c *gin.Context) {
	if _, err := os.Stat(h.index); err != nil {
		c.String(http.StatusNotFound, "frontend not built")
		return
	}
	c.File(h.index)
}

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
