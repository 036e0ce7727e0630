package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gearbot/internal/catalog"
	"gearbot/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "keyboards": {"Razer": {"Huntsman V2": {"description": "d", "specs": {}, "price": "$199"}}},
  "mice": {
    "Logitech": {"G Pro X Superlight": {"description": "d", "specs": {}, "price": "$149"}},
    "Razer": {"Viper Mini": {"description": "d", "specs": {}, "price": "$39"}, "Broken": 1}
  }
}`

func parse(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)
	return c
}

type reloadingStore struct {
	c   *catalog.Catalog
	err error
}

func (s *reloadingStore) Load(context.Context) (*catalog.Catalog, error) { return s.c, nil }

func (s *reloadingStore) Reload(context.Context) (*catalog.Catalog, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.c, nil
}

type sink struct {
	mu  sync.Mutex
	got []telegram.Update
}

func (s *sink) Process(_ context.Context, u telegram.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, u)
}

type counters struct{}

func (counters) Metrics() (uint64, uint64) { return 7, 6 }

type breaker string

func (b breaker) BreakerState() string { return string(b) }

func serve(t *testing.T, opts Options, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	New(opts).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, Options{Store: catalog.Static(parse(t)), Dispatch: counters{}, Transport: breaker("closed")}, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.CatalogLoaded)
	assert.Equal(t, "disabled", resp.AutoReload)
	assert.Equal(t, uint64(7), resp.EventsEnqueued)
	assert.Equal(t, uint64(6), resp.EventsHandled)
	assert.Equal(t, "closed", resp.Breaker)
}

func TestHealthDegradedWhileBreakerOpen(t *testing.T) {
	rec := serve(t, Options{Store: catalog.Static(parse(t)), Transport: breaker("open")}, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.CatalogLoaded)
	assert.Equal(t, "open", resp.Breaker)
}

func TestHealthDegradedWithoutCatalog(t *testing.T) {
	store := catalog.StoreFunc(func(context.Context) (*catalog.Catalog, error) {
		return catalog.Empty(), catalog.ErrUnavailable
	})
	rec := serve(t, Options{Store: store}, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestWebhook(t *testing.T) {
	update := `{"update_id": 5, "callback_query": {"id": "q", "from": {"id": 9}, "data": "rec_skip", "message": {"message_id": 1, "chat": {"id": 9}}}}`

	t.Run("disabled when polling", func(t *testing.T) {
		rec := serve(t, Options{Store: catalog.Static(parse(t))}, http.MethodPost, "/webhook", update, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("rejects wrong secret", func(t *testing.T) {
		s := &sink{}
		rec := serve(t, Options{Store: catalog.Static(parse(t)), Updates: s, WebhookSecret: "s3cret"},
			http.MethodPost, "/webhook", update, map[string]string{SecretHeader: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, s.got)
	})
	t.Run("accepts update", func(t *testing.T) {
		s := &sink{}
		rec := serve(t, Options{Store: catalog.Static(parse(t)), Updates: s, WebhookSecret: "s3cret"},
			http.MethodPost, "/webhook", update, map[string]string{SecretHeader: "s3cret"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, s.got, 1)
		assert.Equal(t, int64(5), s.got[0].UpdateID)
		assert.Equal(t, "rec_skip", s.got[0].CallbackQuery.Data)
	})
	t.Run("bad json", func(t *testing.T) {
		rec := serve(t, Options{Store: catalog.Static(parse(t)), Updates: &sink{}}, http.MethodPost, "/webhook", "{", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReload(t *testing.T) {
	t.Run("static store", func(t *testing.T) {
		rec := serve(t, Options{Store: catalog.Static(parse(t))}, http.MethodPost, "/admin/reload", "", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
	t.Run("reloadable store", func(t *testing.T) {
		rec := serve(t, Options{Store: &reloadingStore{c: parse(t)}}, http.MethodPost, "/admin/reload", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ReloadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Catalog.Categories)
		assert.Equal(t, 4, resp.Catalog.Models)
		assert.Equal(t, 1, resp.Catalog.Defective)
	})
	t.Run("reload failure", func(t *testing.T) {
		rec := serve(t, Options{Store: &reloadingStore{c: parse(t), err: errors.New("bad json")}}, http.MethodPost, "/admin/reload", "", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "bad json")
	})
}

func TestCatalogInfo(t *testing.T) {
	rec := serve(t, Options{Store: catalog.Static(parse(t))}, http.MethodGet, "/admin/catalog-info", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var info CatalogInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 3, info.Brands)
	assert.Equal(t, []CategoryInfo{
		{Name: catalog.Keyboards, Brands: 1, Models: 1},
		{Name: catalog.Mice, Brands: 2, Models: 3},
	}, info.Breakdown)
}

func TestCatalogInfoUnavailable(t *testing.T) {
	store := catalog.StoreFunc(func(context.Context) (*catalog.Catalog, error) {
		return catalog.Empty(), catalog.ErrUnavailable
	})
	rec := serve(t, Options{Store: store}, http.MethodGet, "/admin/catalog-info", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
