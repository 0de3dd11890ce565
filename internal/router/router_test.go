package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/router"
	"github.com/BulizzesRG/myownpos/internal/service"
	"github.com/BulizzesRG/myownpos/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	staffEmail    = "admin@pos.test"
	staffPassword = "s3cret-pass"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		Env:                    "test",
		JWTSecret:              "test-secret-key",
		JWTExpirationHours:     8,
		RateLimitPerMinute:     1000,
		SearchTimeoutMS:        500,
		SearchSyncMode:         config.SearchSyncInline,
		SearchIndexPrefix:      "test",
		ProductCacheTTLMinutes: 5,
	}
}

func seedStaff(t *testing.T, db *gorm.DB) {
	t.Helper()
	hash, err := service.HashPassword(staffPassword)
	require.NoError(t, err)
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), &model.User{
		Name: "Admin", Email: staffEmail, PasswordHash: hash, IsActive: true, IsStaff: true,
	}))
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func (c *client) login() {
	c.t.Helper()
	w := c.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": staffEmail, "password": staffPassword})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data struct {
			Attributes struct {
				AccessToken string `json:"access_token"`
			} `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(c.t, out.Data.Attributes.AccessToken)
	c.token = out.Data.Attributes.AccessToken
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Status
}

type productBody struct {
	Product struct {
		ID           uint    `json:"id"`
		Barcode      string  `json:"barcode"`
		SalePrice    float64 `json:"sale_price"`
		IntSalePrice int64   `json:"int_sale_price"`
		IsActive     int     `json:"is_active"`
	} `json:"product"`
}

func newProduct(barcode, alt string) map[string]any {
	return map[string]any{
		"description":      "Refresco cola 600ml",
		"barcode":          barcode,
		"alternative_code": alt,
		"purchase_price":   10.5,
		"sale_price":       15.25,
		"format_of_sell":   "piece",
	}
}

func newClient(t *testing.T) *client {
	db := testutil.NewDB(t)
	seedStaff(t, db)
	return &client{t: t, h: router.New(testConfig(), db, nil, nil)}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	assert.Contains(t, w.Body.String(), `"search":"closed"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "fail", decode(t, w, nil))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": staffEmail, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductLifecycle(t *testing.T) {
	c := newClient(t)
	c.login()

	// create
	w := c.do(http.MethodPost, "/v1/products", newProduct("7501055300075", "COCA600"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created productBody
	assert.Equal(t, "success", decode(t, w, &created))
	id := created.Product.ID
	require.NotZero(t, id)
	assert.Equal(t, int64(1525), created.Product.IntSalePrice)
	assert.Equal(t, 1, created.Product.IsActive)

	// barcode reused as another product's alternative code
	w = c.do(http.MethodPost, "/v1/products", newProduct("7501000000001", "7501055300075"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var fields map[string][]string
	decode(t, w, &fields)
	assert.Contains(t, fields, "alternative_code")

	// lookup by either code
	w = c.do(http.MethodGet, "/v1/products/code/COCA600", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// price change is audited
	w = c.do(http.MethodPut, "/v1/products/"+itoa(id)+"/prices", map[string]any{"purchase_price": 11, "sale_price": 16.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var repriced productBody
	decode(t, w, &repriced)
	assert.Equal(t, 16.5, repriced.Product.SalePrice)

	w = c.do(http.MethodGet, "/v1/products/"+itoa(id)+"/price-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Data []struct {
			SalePrice float64 `json:"sale_price"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	decode(t, w, &history)
	require.Equal(t, int64(1), history.Total)
	assert.Equal(t, 15.25, history.Data[0].SalePrice)

	w = c.do(http.MethodGet, "/v1/products/"+itoa(id)+"/price-history.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	// browse
	w = c.do(http.MethodGet, "/v1/products?page%5Bsize%5D=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Products struct {
			Data []json.RawMessage `json:"data"`
			Meta struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		} `json:"products"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Products.Data, 1)
	assert.Equal(t, int64(1), list.Products.Meta.Total)

	// no index configured: filtered listing is unavailable, browse is not
	w = c.do(http.MethodGet, "/v1/products?filter=cola", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// delete, then every read is 404 and codes are free again
	w = c.do(http.MethodDelete, "/v1/products/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())

	w = c.do(http.MethodGet, "/v1/products/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = c.do(http.MethodDelete, "/v1/products/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodPost, "/v1/products", newProduct("7501055300075", "COCA600"))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
