package reportshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/expenses"
	"github.com/amsilks/amsilks-erp/internal/orders"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/reports"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

type staticOrders []orders.Order

func (s staticOrders) All(ctx context.Context) ([]orders.Order, error) { return s, nil }

type staticExpenses []expenses.Expense

func (s staticExpenses) List(ctx context.Context, f expenses.Filter) ([]expenses.Expense, error) {
	var out []expenses.Expense
	for _, e := range s {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubRBAC struct{ perms []string }

func (s stubRBAC) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, nil
}

func newRouter(t *testing.T, perms ...string) http.Handler {
	t.Helper()
	line, err := orders.NewDirectItem("Roller blinds", 4, decimal.NewFromInt(250))
	require.NoError(t, err)
	src := staticOrders{{
		Customer:  orders.Customer{Name: "Hamad Villa", Phone: "33445566"},
		Lines:     []orders.LineItem{line},
		CreatedAt: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
	}}
	spent := staticExpenses{
		{Date: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), Category: expenses.CategoryPurchase, Amount: decimal.NewFromInt(400), Project: "Hamad Villa"},
		{Date: time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), Category: expenses.CategoryPartnerWithdrawal, Amount: decimal.NewFromInt(100), Project: expenses.GeneralProject},
	}
	if perms == nil {
		perms = shared.AllPermissions()
	}
	h := NewHandler(nil, reports.NewService(src, spent, nil), rbac.Middleware{Service: stubRBAC{perms: perms}})

	sessions := shared.NewSessionManager(nil, "amsilks_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h.MountRoutes(r)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestProfitAndLossEndpoint(t *testing.T) {
	rr := get(newRouter(t), "/reports/pl?from=2024-05-01&to=2024-05-31")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "1000", body["income"])
	assert.Equal(t, "400", body["total_expenses"])
	assert.Equal(t, "600", body["net_profit"])
	assert.Equal(t, "100", body["partner_withdrawals"])
	assert.Equal(t, "500", body["retained"])
}

func TestProjectsEndpoint(t *testing.T) {
	rr := get(newRouter(t), "/reports/projects")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Projects []struct {
			Project string `json:"project"`
			Profit  string `json:"profit"`
			Margin  string `json:"margin"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "Hamad Villa", body.Projects[0].Project)
	assert.Equal(t, "600", body.Projects[0].Profit)
	assert.Equal(t, "60.0", body.Projects[0].Margin)
}

func TestReportsRejectBadDates(t *testing.T) {
	router := newRouter(t)
	assert.Equal(t, http.StatusBadRequest, get(router, "/reports/pl?from=May").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/reports/pl?from=2024-05-31&to=2024-05-01").Code)
}

func TestReportsForbiddenForStaff(t *testing.T) {
	rr := get(newRouter(t, shared.RolePermissions(shared.RoleStaff)...), "/reports/pl")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
