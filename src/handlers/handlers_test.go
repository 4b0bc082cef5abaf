package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliodesk/backend/src/config"
	"github.com/username/portfoliodesk/backend/src/database"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/processors"
	"github.com/username/portfoliodesk/backend/src/services"
)

const testExport = `BB Yellow Key,Underlying,Risk Country,Latest NMV,PnL
AAPL US Equity,Apple Inc,US,"1,000,000",5000
TSLA US Equity,Tesla Inc,US,-500000,-200
`

func TestMain(m *testing.M) {
	logger.InitLoggerWithWriter("error", io.Discard)
	os.Exit(m.Run())
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	config.Cfg = &config.AppConfig{MaxUploadSizeBytes: 10 << 20}

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	summary := services.NewSummaryService(db, processors.NewPortfolioAggregator(models.DefaultFallbackLabels), reportCache, models.DefaultAUM)
	api := &API{
		Upload:       NewUploadHandler(services.NewImportService(db, summary, models.DefaultAUM)),
		Portfolio:    NewPortfolioHandler(summary, services.NewSettingsService(db, models.DefaultAUM, summary)),
		Positions:    NewPositionHandler(services.NewPositionService(db, summary, models.DefaultAUM)),
		Taxonomy:     NewTaxonomyHandler(services.NewTaxonomyService(db, summary)),
		Trades:       NewTradeHandler(services.NewTradeService(db, summary, models.DefaultAUM)),
		NameMappings: NewNameMappingHandler(services.NewNameMappingService(db)),
	}

	r := chi.NewRouter()
	r.Use(ContextualLoggerMiddleware)
	r.Use(MetricsMiddleware)
	r.Route("/api", api.Routes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestImportAndSummaryWithETag(t *testing.T) {
	h := setupRouter(t)

	rr := upload(t, h, "positions.csv", testExport)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var result models.ImportResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = doJSON(t, h, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)
	var summary models.PortfolioSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.InDelta(t, 0.1, summary.TotalLong, 1e-12)
	assert.InDelta(t, -0.05, summary.TotalShort, 1e-12)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/import-history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []models.ImportHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "positions.csv", history[0].FileName)
}

func TestImportRejectsBadFiles(t *testing.T) {
	h := setupRouter(t)

	rr := upload(t, h, "positions.pdf", testExport)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = upload(t, h, "positions.xlsx", testExport)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "csv content behind an xlsx name")

	rr = upload(t, h, "positions.csv", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("not multipart"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPositionEndpoints(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/positions", map[string]interface{}{
		"tickerBbg": "1 HK Equity", "nameEn": "Alpha", "longShort": "long", "positionAmount": 100000,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created models.PositionWithRelations
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, h, http.MethodPost, "/api/positions", map[string]interface{}{"tickerBbg": "1 HK Equity"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/positions", map[string]interface{}{"tickerBbg": "2 HK Equity", "longShort": "up"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/positions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = doJSON(t, h, http.MethodGet, "/api/positions/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/positions/"+strconv.FormatInt(created.ID, 10), map[string]interface{}{"priority": "high"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated models.PositionWithRelations
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "high", updated.Priority)

	rr = doJSON(t, h, http.MethodGet, "/api/positions?merged=false&longShort=long", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.PositionWithRelations
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rr = doJSON(t, h, http.MethodGet, "/api/positions?longShort=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/positions/"+strconv.FormatInt(created.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doJSON(t, h, http.MethodDelete, "/api/positions/"+strconv.FormatInt(created.ID, 10), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaxonomyDeleteConflictReportsReferences(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/taxonomy", models.TaxonomyInput{Type: models.TaxonomyTheme, Name: "AI"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var theme models.Taxonomy
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &theme))

	rr = doJSON(t, h, http.MethodPost, "/api/taxonomy", models.TaxonomyInput{Type: models.TaxonomyTheme, Name: "AI"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/positions", map[string]interface{}{"tickerBbg": "1 HK Equity", "themeId": theme.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodDelete, "/api/taxonomy/"+strconv.FormatInt(theme.ID, 10), nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	var body struct {
		Error      string                    `json:"error"`
		References models.TaxonomyReferences `json:"references"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.References.Theme)
	assert.NotEmpty(t, body.Error)

	rr = doJSON(t, h, http.MethodGet, "/api/taxonomy?type=theme", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var nodes []models.TaxonomyNode
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &nodes))
	assert.Len(t, nodes, 1)
}

func TestTaxonomyUpdateKeepsAbsentFields(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/taxonomy", models.TaxonomyInput{Type: models.TaxonomyTopdown, Name: "AI"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var parent models.Taxonomy
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &parent))
	rr = doJSON(t, h, http.MethodPost, "/api/taxonomy", models.TaxonomyInput{Type: models.TaxonomyTopdown, Name: "GPU", ParentID: &parent.ID, SortOrder: 4})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var child models.Taxonomy
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &child))
	path := "/api/taxonomy/" + strconv.FormatInt(child.ID, 10)

	rr = doJSON(t, h, http.MethodPut, path, map[string]int{"sortOrder": 7})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = doJSON(t, h, http.MethodPut, path, map[string]string{"name": "Accelerators"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated models.Taxonomy
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Accelerators", updated.Name)
	assert.Equal(t, 7, updated.SortOrder)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, parent.ID, *updated.ParentID)

	rr = doJSON(t, h, http.MethodPut, path, map[string]interface{}{"parentId": nil})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "Accelerators", updated.Name)
}

func TestInternalErrorCarriesRequestID(t *testing.T) {
	h := ContextualLoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendServiceError(w, r, errors.New("disk on fire"), "Failed to load things")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/things", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Failed to load things", body["error"])
	assert.NotEmpty(t, body["requestId"])
	assert.Equal(t, rr.Header().Get("X-Request-ID"), body["requestId"])
}

func TestTradeEndpoints(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/positions", map[string]interface{}{
		"tickerBbg": "1 HK Equity", "longShort": "long", "positionAmount": 100000,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, "/api/trades", models.TradeInput{
		Note:  "add",
		Items: []models.TradeItemInput{{TickerBbg: "1 HK Equity", Name: "Alpha", TransactionType: models.TransactionBuy, GmvUsdK: 50}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var trade models.Trade
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trade))
	path := "/api/trades/" + strconv.FormatInt(trade.ID, 10)

	rr = doJSON(t, h, http.MethodPut, path, map[string]string{"status": models.TradeStatusExecuted})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trade))
	assert.Equal(t, models.TradeStatusExecuted, trade.Status)
	require.NotNil(t, trade.Snapshot)

	rr = doJSON(t, h, http.MethodPut, path, map[string]string{"status": models.TradeStatusExecuted})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/positions?merged=false", nil)
	var list []models.PositionWithRelations
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 150000.0, list[0].PositionAmount)

	rr = doJSON(t, h, http.MethodGet, path+"/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxMimeType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "trade-"+strconv.FormatInt(trade.ID, 10)+"-")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = doJSON(t, h, http.MethodGet, "/api/trades/999/export", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"aum":10000000}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodPut, "/api/settings", map[string]float64{"aum": -1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/settings", map[string]float64{"aum": 5e7})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"aum":50000000}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("{"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNameMappingEndpoints(t *testing.T) {
	h := setupRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/api/name-mappings", models.NameMappingInput{BbgName: "Apple Inc", ChineseName: "苹果"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var m models.NameMapping
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))

	rr = doJSON(t, h, http.MethodPost, "/api/name-mappings", models.NameMappingInput{BbgName: "Apple Inc", ChineseName: "x"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/name-mappings/"+strconv.FormatInt(m.ID, 10), map[string]string{"chineseName": "苹果公司"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/name-mappings", nil)
	var list []models.NameMapping
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "苹果公司", list[0].ChineseName)

	rr = doJSON(t, h, http.MethodDelete, "/api/name-mappings/"+strconv.FormatInt(m.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
