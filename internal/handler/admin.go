package handler

import (
	"crypto/subtle"
	"net/http"
	"runtime"
	"time"

	"huanghe-analytics-api/internal/cache"
	"huanghe-analytics-api/internal/service"
	"huanghe-analytics-api/pkg/apierror"
	"huanghe-analytics-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	snapshotService *service.SnapshotService
	resultCache     cache.Cache
	dbType          string // Snapshot store type: sqlite or postgres
	loginKey        string
	startTime       time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(snapshotService *service.SnapshotService, resultCache cache.Cache, dbType, loginKey string) *AdminHandler {
	return &AdminHandler{
		snapshotService: snapshotService,
		resultCache:     resultCache,
		dbType:          dbType,
		loginKey:        loginKey,
		startTime:       time.Now(),
	}
}

// authorize checks the X-Login-Key header against the configured key.
func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.loginKey == "" {
		return false
	}
	key := r.Header.Get("X-Login-Key")
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.loginKey)) == 1
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(r) {
		response.Error(w, apierror.Unauthorized("invalid login key"))
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Snapshot store + buffer stats
	if h.snapshotService != nil {
		storeStats, err := h.snapshotService.GetStoreStats(ctx)
		if err == nil {
			storeStats["status"] = "connected"
			stats["snapshot_store"] = storeStats
		} else {
			stats["snapshot_store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["snapshot_store"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Analysis result cache stats. The memory cache reports entry counts;
	// the redis cache has no cheap size probe.
	if counter, ok := h.resultCache.(*cache.MemoryCache); ok {
		stats["result_cache"] = map[string]interface{}{
			"type":    "memory",
			"entries": counter.Len(),
		}
	} else if h.resultCache != nil {
		stats["result_cache"] = map[string]interface{}{
			"type": "redis",
		}
	} else {
		stats["result_cache"] = map[string]interface{}{
			"type": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(r) {
		response.Error(w, apierror.Unauthorized("invalid login key"))
		return
	}
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
