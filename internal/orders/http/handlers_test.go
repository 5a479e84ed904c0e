package ordershttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/orders"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

type stubRBAC struct {
	perms []string
}

func (s stubRBAC) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, nil
}

type memoryOrders struct {
	saved   []orders.Order
	keys    map[string]int
	entries []ledger.Entry
}

func (m *memoryOrders) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryOrders) InsertOrder(ctx context.Context, o orders.Order, key string) (orders.Order, error) {
	o.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, o)
	if key != "" {
		m.keys[key] = len(m.saved) - 1
	}
	return o, nil
}

func (m *memoryOrders) AppendLedger(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryOrders) FindByIdempotencyKey(ctx context.Context, key string) (orders.Order, error) {
	if i, ok := m.keys[key]; ok {
		return m.saved[i], nil
	}
	return orders.Order{}, orders.ErrNotFound
}

func (m *memoryOrders) ListByPhone(ctx context.Context, phone string) ([]orders.Order, error) {
	var out []orders.Order
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Customer.Phone == phone {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

func (m *memoryOrders) ListAll(ctx context.Context) ([]orders.Order, error) { return m.saved, nil }

type stubQuotes struct{}

func (stubQuotes) QuotationPDF(ctx context.Context, order orders.Order) ([]byte, error) {
	if order.IsEmpty() {
		return nil, orders.ErrEmptyCart
	}
	return []byte("%PDF-1.4 quote"), nil
}

type harness struct {
	router http.Handler
	repo   *memoryOrders
}

func newHarness(t *testing.T, perms ...string) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryOrders{keys: map[string]int{}}
	svc := orders.NewService(repo, orders.NewRedisCartStore(client, time.Hour), nil, nil)
	if perms == nil {
		perms = []string{shared.PermOrdersEdit}
	}
	h := NewHandler(nil, svc, stubQuotes{}, rbac.Middleware{Service: stubRBAC{perms: perms}})

	sessions := shared.NewSessionManager(client, "amsilks_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	sess.Set(shared.SessionUserNameKey, "Mariam")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h.MountRoutes(r)
	return &harness{router: r, repo: repo}
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

const majlisItem = `{"room":"Majlis","measurement":{"kind":"curtain","width_cm":200,"height_cm":250,"quantity":2,"fabric_width_m":2.8},
	"pricing":{"unit_fabric_price":"25","stitching_per_piece":"40","fixing_per_piece":"15"}}`

func TestAddCalculatedItem(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/orders/cart/items", majlisItem)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "410", body["net_total"])
	lines := body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "calculated", line["kind"])
	calc := line["calculated"].(map[string]any)
	assert.Equal(t, "RAILROAD", calc["layout"])
	assert.Equal(t, 6.0, calc["fabric_meters"])
}

func TestAddItemRejectsNonStandardWidth(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/orders/cart/items",
		`{"measurement":{"kind":"SHEER","width_cm":200,"height_cm":250,"quantity":1,"fabric_width_m":2.5}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "fabric_width_m", decodeBody(t, rr)["field"])
}

func TestAddItemValidationNamesField(t *testing.T) {
	h := newHarness(t)
	cases := map[string]struct {
		body  string
		field string
	}{
		"zero width":   {`{"measurement":{"kind":"CURTAIN","width_cm":0,"height_cm":250,"quantity":1,"fabric_width_m":2.8}}`, "width_cm"},
		"no quantity":  {`{"measurement":{"kind":"CURTAIN","width_cm":100,"height_cm":250,"quantity":0,"fabric_width_m":2.8}}`, "quantity"},
		"unknown kind": {`{"measurement":{"kind":"awning","width_cm":100,"height_cm":250,"quantity":1}}`, "kind"},
		"direct kind":  {`{"measurement":{"kind":"DIRECT_ITEM","width_cm":100,"height_cm":250,"quantity":1}}`, "kind"},
		"curtain roll": {`{"measurement":{"kind":"CURTAIN","width_cm":100,"height_cm":250,"quantity":1}}`, "fabric_width_m"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := h.do(t, http.MethodPost, "/orders/cart/items", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, tc.field, decodeBody(t, rr)["field"])
		})
	}
}

func TestBlindNeedsNoFabricWidth(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/orders/estimate", `{"kind":"Roller Blind","width_cm":100,"height_cm":100,"quantity":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "AREA_CALC", body["layout"])
	assert.Equal(t, 2.0, body["fabric_meters"])
	assert.Equal(t, 1.5, body["supplier_fabric_meters"])
}

func TestRejectsUnknownJSONFields(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPut, "/orders/cart/customer", `{"name":"Fatima","phone":"55001122","vip":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveFlowIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/orders/cart/items", majlisItem).Code)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/orders/cart/direct-items",
		`{"description":"Motorised track","quantity":1,"unit_price":"650"}`).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, "/orders/cart/customer", `{"name":"Fatima","phone":"5500 1122"}`).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, "/orders/cart/terms", `{"discount":"60","advance":"200"}`).Code)

	first := h.do(t, http.MethodPost, "/orders/cart/save", "", "Idempotency-Key", "abc-123")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "/orders/history?phone=55001122", first.Header().Get("Location"))
	saved := decodeBody(t, first)
	assert.Equal(t, "1000", saved["net_total"])
	assert.Equal(t, "800", saved["balance_due"])
	assert.Equal(t, "Mariam", saved["created_by"])

	again := h.do(t, http.MethodPost, "/orders/cart/save", "", "Idempotency-Key", "abc-123")
	require.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, saved["number"], decodeBody(t, again)["number"])
	assert.Len(t, h.repo.saved, 1)
	assert.Len(t, h.repo.entries, 2)

	cart := decodeBody(t, h.do(t, http.MethodGet, "/orders/cart", ""))
	assert.Empty(t, cart["lines"])

	history := decodeBody(t, h.do(t, http.MethodGet, "/orders/history?phone=55001122", ""))
	assert.Equal(t, "Fatima", history["customer_name"])
	assert.Len(t, history["orders"], 1)
}

func TestSaveEmptyCart(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/orders/cart/save", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "lines", decodeBody(t, rr)["field"])
}

func TestRemoveAndClear(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/orders/cart/items", majlisItem).Code)

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/orders/cart/items/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodDelete, "/orders/cart/items/x", "").Code)
	rr := h.do(t, http.MethodDelete, "/orders/cart/items/0", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody(t, rr)["lines"])

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/orders/cart", "").Code)
}

func TestQuotationPDF(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/orders/cart/quotation.pdf", "").Code)

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/orders/cart/items", majlisItem).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, "/orders/cart/customer", `{"name":"Fatima Al Sayed","phone":"55001122"}`).Code)
	rr := h.do(t, http.MethodGet, "/orders/cart/quotation.pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "quotation-fatima-al-sayed.pdf")
}

func TestForbiddenWithoutPermission(t *testing.T) {
	h := newHarness(t, shared.PermReportsView)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/orders/cart", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/orders/history?phone=1", "").Code)
}
