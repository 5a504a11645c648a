package handlers

import (
	"net/http"
	"time"

	"github.com/tidytask/tidytask/internal/database"
)

type SystemHandler struct {
	db      *database.DB
	version string
	started time.Time
}

func NewSystemHandler(db *database.DB, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version, started: time.Now()}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}
