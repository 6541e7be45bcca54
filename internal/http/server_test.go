package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/services"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestServer(t *testing.T) (*Server, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)}
	svc := services.NewPOSService(nil, services.WithNow(c.now))
	return NewServer(":0", svc, Options{Backend: "memory", RateLimit: 1000}), c
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body %q", rr.Body.String())
	return out
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), `"backend":"memory"`)
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"), path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestRegisterShiftOverHTTP(t *testing.T) {
	srv, c := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/registers", `{"storeId":"1","employeeId":"e1","openingAmount":"100.000"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reg := decodeBody[core.CashRegister](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/registers", `{"storeId":"1","employeeId":"e2","openingAmount":"0"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	c.t = c.t.Add(time.Hour)
	rr = do(t, srv, http.MethodPost, "/api/sales", `{"storeId":"1","paymentMethod":"Efectivo","invoiceNumber":"FAC-9",
		"items":[{"productId":"p1","quantity":2,"unitPrice":"25.000"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sale := decodeBody[core.Sale](t, rr)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(50000)), "sale total %s", sale.Total)

	c.t = c.t.Add(time.Hour)
	rr = do(t, srv, http.MethodPost, "/api/expenses", `{"storeId":"1","amount":"10000","description":"Aseo","category":"Limpieza"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	c.t = c.t.Add(time.Hour)
	rr = do(t, srv, http.MethodPost, "/api/registers/"+reg.ID+"/close", `{"closingAmount":"$ 140.000"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	closed := decodeBody[closeRegisterResponse](t, rr)
	assert.True(t, closed.Report.ExpectedAmount.Equal(decimal.NewFromInt(140000)), "expected %s", closed.Report.ExpectedAmount)
	assert.True(t, closed.Report.Difference.IsZero())
	assert.Equal(t, "normal", closed.Report.VarianceLevel)
	assert.Contains(t, closed.Display.ExpectedAmount, "140.000")

	rr = do(t, srv, http.MethodPost, "/api/registers/"+reg.ID+"/close", `{"closingAmount":"140000"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/movements", "")
	movements := decodeBody[[]core.CashMovement](t, rr)
	require.Len(t, movements, 4)
	assert.Equal(t, core.MovementExpense, movements[2].Type)
	assert.True(t, movements[2].Amount.Equal(decimal.NewFromInt(-10000)), "expense booked %s", movements[2].Amount)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/movements?type=closing", "")
	assert.Len(t, decodeBody[[]core.CashMovement](t, rr), 1)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/movements?reference="+reg.ID, "")
	byRegister := decodeBody[[]core.CashMovement](t, rr)
	require.Len(t, byRegister, 2)
	assert.Equal(t, core.MovementOpening, byRegister[0].Type)
	assert.Equal(t, core.MovementClosing, byRegister[1].Type)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/registers?status=open", "")
	assert.Empty(t, decodeBody[[]core.CashRegister](t, rr))
}

func TestManualCashMovementOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/cash-movements", `{"storeId":"1","type":"expense","amount":"2.500","description":"Cambio","referenceId":"caja-menor"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	m := decodeBody[core.CashMovement](t, rr)
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(-2500)), "booked %s", m.Amount)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/movements?reference=caja-menor", "")
	assert.Len(t, decodeBody[[]core.CashMovement](t, rr), 1)
}

func TestAccentedDescriptionsWithinLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	desc := strings.Repeat("ñ", 150)

	rr := do(t, srv, http.MethodPost, "/api/expenses", `{"storeId":"1","amount":"1000","description":"`+desc+`"}`)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = do(t, srv, http.MethodPost, "/api/cash-movements", `{"storeId":"1","type":"sale","amount":"1000","description":"`+desc+`"}`)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodPost, "/api/expenses", `{"storeId":"1","amount":"1000","description":"`+strings.Repeat("ñ", 201)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestValidationProblems(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		name   string
		path   string
		body   string
		status int
		field  string
	}{
		{"malformed json", "/api/expenses", `{`, http.StatusBadRequest, ""},
		{"unknown field", "/api/expenses", `{"storeId":"1","amount":"1","description":"x","bogus":1}`, http.StatusBadRequest, ""},
		{"bad amount", "/api/expenses", `{"storeId":"1","amount":"abc","description":"x"}`, http.StatusBadRequest, "amount"},
		{"negative amount", "/api/registers", `{"storeId":"1","employeeId":"e","openingAmount":"-5"}`, http.StatusBadRequest, "openingAmount"},
		{"missing items", "/api/sales", `{"storeId":"1","paymentMethod":"Efectivo","items":[]}`, http.StatusBadRequest, "items"},
		{"bad movement type", "/api/cash-movements", `{"storeId":"1","type":"refund","amount":"1"}`, http.StatusBadRequest, "type"},
		{"zero expense", "/api/expenses", `{"storeId":"1","amount":"0","description":"x"}`, http.StatusBadRequest, ""},
		{"surcharge above 100", "/api/payment-methods", `{"name":"Raro","discountPercentage":"150"}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
			if tc.field == "" {
				return
			}
			p := decodeBody[ProblemDetail](t, rr)
			found := false
			for k := range p.Fields {
				if strings.HasSuffix(k, tc.field) {
					found = true
				}
			}
			assert.True(t, found, "field %s in %+v", tc.field, p.Fields)
		})
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/registers/nope", ""},
		{http.MethodPost, "/api/registers/nope/close", `{"closingAmount":"1"}`},
		{http.MethodGet, "/api/layaways/nope", ""},
		{http.MethodPost, "/api/layaways/nope/payments", `{"amount":"1"}`},
		{http.MethodPatch, "/api/layaways/nope", `{"dueDate":null}`},
		{http.MethodPost, "/api/layaways/nope/cancel", ""},
		{http.MethodPut, "/api/products/nope", `{"name":"x","price":"1","storeId":"1"}`},
		{http.MethodPut, "/api/payment-methods/nope", `{"name":"x"}`},
		{http.MethodDelete, "/api/payment-methods/nope", ""},
		{http.MethodDelete, "/api/expense-categories/Nada", ""},
	} {
		rr := do(t, srv, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s: %s", tc.method, tc.path, rr.Body.String())
	}
}

func TestScannerRequestsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/.env", "/api/products?path=../../etc/passwd"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.NotContains(t, rr.Header().Get("Content-Type"), "problem+json", path)
	}
}

func TestLayawayOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/layaways", `{"storeId":"1","customerId":"c1",
		"items":[{"productId":"p1","quantity":1,"unitPrice":"300"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	l := decodeBody[core.Layaway](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/layaways/"+l.ID+"/payments", `{"amount":"300","paymentMethod":"Nequi"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	l = decodeBody[core.Layaway](t, rr)
	assert.Equal(t, core.LayawayCompleted, l.Status)

	rr = do(t, srv, http.MethodPost, "/api/layaways/"+l.ID+"/payments", `{"amount":"1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLayawayCancelOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/products", `{"name":"Bolso","price":"300","stock":2,"storeId":"1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	p := decodeBody[core.Product](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/layaways", `{"storeId":"1","customerId":"c1",
		"items":[{"productId":"`+p.ID+`","quantity":2,"unitPrice":"300"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	l := decodeBody[core.Layaway](t, rr)

	rr = do(t, srv, http.MethodPatch, "/api/layaways/"+l.ID, `{"dueDate":"2025-06-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	l = decodeBody[core.Layaway](t, rr)
	require.NotNil(t, l.DueDate)
	assert.Equal(t, 2025, l.DueDate.Year())

	rr = do(t, srv, http.MethodPost, "/api/layaways/"+l.ID+"/cancel", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, core.LayawayCancelled, decodeBody[core.Layaway](t, rr).Status)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/products", "")
	products := decodeBody[[]core.Product](t, rr)
	require.Len(t, products, 1)
	assert.Equal(t, 2, products[0].Stock, "reserved units return to stock")

	rr = do(t, srv, http.MethodPost, "/api/layaways/"+l.ID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCatalogAndDashboard(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/products", `{"name":"Camisa","price":"25.000","stock":3,"minStock":2,"storeId":"1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	p := decodeBody[core.Product](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/purchases", `{"storeId":"1","items":[{"productId":"`+p.ID+`","quantity":4,"unitCost":"10000"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodPost, "/api/sales", `{"storeId":"1","paymentMethod":"Efectivo",
		"items":[{"productId":"`+p.ID+`","quantity":5,"unitPrice":"25000"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/stores/1/products", "")
	products := decodeBody[[]core.Product](t, rr)
	require.Len(t, products, 1)
	assert.Equal(t, 2, products[0].Stock)

	rr = do(t, srv, http.MethodGet, "/api/stores/1/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var d struct {
		TodayRevenue decimal.Decimal `json:"todayRevenue"`
		LowStock     []core.Product  `json:"lowStock"`
		Display      struct {
			TodayRevenue string `json:"todayRevenue"`
		} `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.True(t, d.TodayRevenue.Equal(decimal.NewFromInt(125000)), "today %s", d.TodayRevenue)
	assert.Len(t, d.LowStock, 1)
	assert.Contains(t, d.Display.TodayRevenue, "125.000")
}

func TestCategoriesAndPaymentMethods(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/expense-categories", `{"name":"Arriendo"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	rr = do(t, srv, http.MethodPost, "/api/expense-categories", `{"name":"arriendo"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/expense-categories/Arriendo", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/payment-methods", "")
	assert.Len(t, decodeBody[[]core.PaymentMethod](t, rr), 6)

	rr = do(t, srv, http.MethodPost, "/api/payment-methods", `{"name":"Bono regalo","discountPercentage":"10"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	pm := decodeBody[core.PaymentMethod](t, rr)
	assert.True(t, pm.IsActive)

	rr = do(t, srv, http.MethodPost, "/api/payment-methods", `{"name":"BONO REGALO"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/payment-methods/"+pm.ID, `{"name":"Bono regalo","discountPercentage":"5","isActive":false}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	pm = decodeBody[core.PaymentMethod](t, rr)
	assert.False(t, pm.IsActive)
	assert.True(t, pm.DiscountPercentage.Equal(decimal.NewFromInt(5)))

	rr = do(t, srv, http.MethodDelete, "/api/payment-methods/"+pm.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/payment-methods", "")
	assert.Len(t, decodeBody[[]core.PaymentMethod](t, rr), 6)
}

func TestRateLimit(t *testing.T) {
	c := &clock{t: time.Now()}
	svc := services.NewPOSService(nil, services.WithNow(c.now))
	srv := NewServer(":0", svc, Options{RateLimit: 2})

	var last int
	for i := 0; i < 3; i++ {
		rr := do(t, srv, http.MethodGet, "/api/payment-methods", "")
		last = rr.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	// health checks are not limited
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
}
