package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"restoran-web/internal/config"
	"restoran-web/internal/logging"
	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testutil.Config()
	for _, m := range mutate {
		m(cfg)
	}
	db := testutil.NewDB(t)
	app := New(cfg, db, logging.New("test", "error", io.Discard))
	return &harness{t: t, app: app, db: db, cfg: cfg}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) jsonReq(method, path, token, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (h *harness) token(username, password string) string {
	h.t.Helper()
	resp, body := h.do(h.jsonReq(http.MethodPost, "/api/auth/token", "",
		`{"username":"`+username+`","password":"`+password+`"}`))
	require.Equal(h.t, fiber.StatusOK, resp.StatusCode, body)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(body), &out))
	return out.Token
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRootRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/", resp.Header.Get("Location"))
}

func TestLoginPageRendersWithRole(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(httptest.NewRequest(http.MethodGet, "/login/rider/", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="rider" selected>`)
	assert.Contains(t, body, "/login/demo/")
	assert.NotNil(t, cookie(resp, "csrf_"))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	h := newHarness(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/orders/"},
		{http.MethodGet, "/api/orders/my"},
		{http.MethodGet, "/api/rider/jobs/available"},
		{http.MethodPost, "/api/vouchers/validate/"},
		{http.MethodGet, "/admin/api/orders"},
	} {
		resp, _ := h.do(h.jsonReq(tc.method, tc.path, "", `{}`))
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, tc.path)
	}

	resp, _ := h.do(httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOrderFlowWithBearerToken(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "alice", "pw", models.RoleCustomer)
	testutil.CreateUser(t, h.db, "kim", "pw", models.RoleChef)
	testutil.CreateVoucher(t, h.db, "WELCOME10", models.DiscountPercent, "10", "100", "50")
	customer := h.token("alice", "pw")
	chef := h.token("kim", "pw")

	resp, body := h.do(h.jsonReq(http.MethodPost, "/api/orders/", customer,
		`{"order":{"type":"delivery","address":"1 Road","subtotal":"200","deliveryFee":30,"voucherCode":"welcome10"}}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Total  string `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "210.00", created.Total)

	resp, body = h.do(h.jsonReq(http.MethodGet, "/api/orders/my", customer, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"total":"210.00"`)

	// customers cannot drive the kitchen workflow
	resp, _ = h.do(h.jsonReq(http.MethodPost, "/api/orders/1/status", customer, `{"status":"preparing"}`))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = h.do(h.jsonReq(http.MethodPost, "/api/orders/1/status", chef, `{"status":"preparing"}`))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	resp, _ = h.do(h.jsonReq(http.MethodPost, "/api/orders/1/status", chef, `{"status":"paid"}`))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestMalformedOrderBodyIsNotAServerError(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "alice", "pw", models.RoleCustomer)
	tok := h.token("alice", "pw")

	resp, _ := h.do(h.jsonReq(http.MethodPost, "/api/orders/", tok, `{not json`))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = h.do(h.jsonReq(http.MethodPost, "/api/orders/", tok, `["a"]`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRiderRoutesRequireRiderRole(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "alice", "pw", models.RoleCustomer)
	testutil.CreateUser(t, h.db, "rob", "pw", models.RoleRider)

	resp, _ := h.do(h.jsonReq(http.MethodGet, "/api/rider/jobs/available", h.token("alice", "pw"), ""))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	rob := h.token("rob", "pw")
	resp, body := h.do(h.jsonReq(http.MethodGet, "/api/rider/jobs/available", rob, ""))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"jobs":[]}`, body)

	resp, _ = h.do(h.jsonReq(http.MethodPost, "/api/rider/jobs/42/accept", rob, ""))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFormLoginNeedsCSRFToken(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "alice", "pw", models.RoleCustomer)

	form := url.Values{"loginEmail": {"ALICE"}, "loginPassword": {"pw"}, "loginRole": {"customer"}}
	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := h.do(req)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	page, _ := h.do(httptest.NewRequest(http.MethodGet, "/login/", nil))
	csrfCookie := cookie(page, "csrf_")
	require.NotNil(t, csrfCookie)

	form.Set("_csrf", csrfCookie.Value)
	req = httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie)
	resp, _ = h.do(req)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/customer/", resp.Header.Get("Location"))

	session := cookie(resp, h.cfg.CookieName)
	require.NotNil(t, session)

	// the session opens the own dashboard and bounces off the others
	req = httptest.NewRequest(http.MethodGet, "/customer/", nil)
	req.AddCookie(session)
	resp, body := h.do(req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Customer - Restaurant")

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(session)
	resp, _ = h.do(req)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/customer/", resp.Header.Get("Location"))
}

func TestFailedLoginRerendersPage(t *testing.T) {
	h := newHarness(t)
	page, _ := h.do(httptest.NewRequest(http.MethodGet, "/login/", nil))
	csrfCookie := cookie(page, "csrf_")
	require.NotNil(t, csrfCookie)

	form := url.Values{"loginEmail": {"nobody"}, "loginPassword": {"x"}, "_csrf": {csrfCookie.Value}}
	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie)
	resp, body := h.do(req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password")
}

func TestDashboardRequiresLogin(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(httptest.NewRequest(http.MethodGet, "/staff/", nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/", resp.Header.Get("Location"))

	resp, _ = h.do(httptest.NewRequest(http.MethodGet, "/home/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDemoLogin(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(httptest.NewRequest(http.MethodGet, "/login/demo/chef/", nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/chef/", resp.Header.Get("Location"))
	assert.NotNil(t, cookie(resp, h.cfg.CookieName))

	off := newHarness(t, func(c *config.Config) { c.DemoLogin = false })
	resp, _ = off.do(httptest.NewRequest(http.MethodGet, "/login/demo/chef/", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminConsoleRoutes(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "root", "pw", models.RoleAdmin)
	testutil.CreateUser(t, h.db, "sam", "pw", models.RoleStaff)
	root := h.token("root", "pw")

	resp, _ := h.do(h.jsonReq(http.MethodGet, "/admin/api/summary", h.token("sam", "pw"), ""))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := h.do(h.jsonReq(http.MethodGet, "/admin/api/summary?period=weekly&count=4", root, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"period":"weekly"`)

	resp, body = h.do(h.jsonReq(http.MethodPost, "/admin/api/menu-categories", root, `{"name":"Desserts"}`))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = h.do(h.jsonReq(http.MethodGet, "/admin/api/audit-logs?entity_type=menu-categories", root, ""))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"count":1`)

	resp, _ = h.do(h.jsonReq(http.MethodGet, "/admin/api/menu-categories/export.xlsx", root, ""))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
