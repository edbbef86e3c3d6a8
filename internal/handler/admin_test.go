package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"huanghe-analytics-api/internal/cache"
)

func TestAdminGetStatsRequiresLoginKey(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })
	h := NewAdminHandler(nil, memCache, "sqlite", "hunter2")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Login-Key", "wrong")
	rec = httptest.NewRecorder()
	h.GetStats(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestAdminGetStatsReportsResultCache(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })
	memCache.Set(context.Background(), "project:1:analysis:24", []byte("{}"), time.Minute)
	memCache.Set(context.Background(), "project:2:analysis:24", []byte("{}"), time.Minute)

	h := NewAdminHandler(nil, memCache, "sqlite", "hunter2")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Login-Key", "hunter2")
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}

	rc, ok := envelope.Data["result_cache"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result_cache block: %v", envelope.Data)
	}
	if rc["type"] != "memory" {
		t.Errorf("result_cache type = %v, want memory", rc["type"])
	}
	if rc["entries"] != float64(2) {
		t.Errorf("result_cache entries = %v, want 2", rc["entries"])
	}
}
