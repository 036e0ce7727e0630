package httpapi

import (
	"time"

	"gearbot/internal/catalog"
)

// HealthResponse is served on GET /health.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	CatalogLoaded   bool      `json:"catalog_loaded"`
	CatalogLoadedAt time.Time `json:"catalog_loaded_at,omitempty"`
	AutoReload      string    `json:"auto_reload"`
	Sessions        int       `json:"sessions"`
	EventsEnqueued  uint64    `json:"events_enqueued"`
	EventsHandled   uint64    `json:"events_handled"`
	Breaker         string    `json:"breaker,omitempty"`
}

// ReloadResponse is served on POST /admin/reload.
type ReloadResponse struct {
	Message    string        `json:"message"`
	Catalog    catalog.Stats `json:"catalog"`
	ReloadedAt time.Time     `json:"reloaded_at"`
}

// CategoryInfo counts one category's brands and models.
type CategoryInfo struct {
	Name   string `json:"name"`
	Brands int    `json:"brands"`
	Models int    `json:"models"`
}

// CatalogInfo is served on GET /admin/catalog-info.
type CatalogInfo struct {
	catalog.Stats
	Breakdown []CategoryInfo `json:"breakdown"`
	Timestamp time.Time      `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}
