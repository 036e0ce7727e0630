package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"gearbot/internal/catalog"
	"gearbot/internal/obs"
	"gearbot/internal/telegram"

	"github.com/labstack/echo/v4"
)

func (h *handlers) handleWebhook(c echo.Context) error {
	if h.opts.Updates == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "webhook intake is disabled"})
	}
	if h.opts.WebhookSecret != "" && !secretMatches(c.Request().Header.Get(SecretHeader), h.opts.WebhookSecret) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid secret token"})
	}

	var u telegram.Update
	if err := c.Bind(&u); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid update"})
	}
	h.opts.Updates.Process(c.Request().Context(), u)
	return c.NoContent(http.StatusOK)
}

func (h *handlers) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Timestamp: time.Now(), AutoReload: "disabled"}
	if _, ok := h.opts.Store.(Reloader); ok {
		resp.AutoReload = "enabled"
	}
	if cat, err := h.opts.Store.Load(c.Request().Context()); err == nil && !cat.IsEmpty() {
		resp.CatalogLoaded = true
		resp.CatalogLoadedAt = cat.LoadedAt()
	} else {
		resp.Status = "degraded"
	}
	if h.opts.Sessions != nil {
		resp.Sessions = h.opts.Sessions.Len()
	}
	if h.opts.Dispatch != nil {
		resp.EventsEnqueued, resp.EventsHandled = h.opts.Dispatch.Metrics()
	}
	if h.opts.Transport != nil {
		resp.Breaker = h.opts.Transport.BreakerState()
		if resp.Breaker == "open" {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleReload(c echo.Context) error {
	r, ok := h.opts.Store.(Reloader)
	if !ok {
		return c.JSON(http.StatusConflict, errorResponse{Error: "catalog is read on every request; nothing to reload"})
	}
	cat, err := r.Reload(c.Request().Context())
	if err != nil {
		obs.Logger.Error("catalog_admin_reload_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("reload failed: %v", err)})
	}
	st := cat.Stats()
	return c.JSON(http.StatusOK, ReloadResponse{
		Message:    fmt.Sprintf("Catalog reloaded: %d categories, %d models", st.Categories, st.Models),
		Catalog:    st,
		ReloadedAt: time.Now(),
	})
}

func (h *handlers) handleCatalogInfo(c echo.Context) error {
	cat, err := h.opts.Store.Load(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	info := CatalogInfo{Stats: cat.Stats(), Timestamp: time.Now()}
	info.Breakdown = breakdown(cat)
	return c.JSON(http.StatusOK, info)
}

func breakdown(cat *catalog.Catalog) []CategoryInfo {
	out := make([]CategoryInfo, 0, len(cat.Categories()))
	for _, name := range cat.Categories() {
		brands, _ := cat.Brands(name)
		ci := CategoryInfo{Name: name, Brands: len(brands)}
		for _, b := range brands {
			models, _ := cat.Models(name, b)
			ci.Models += len(models)
		}
		out = append(out, ci)
	}
	return out
}
