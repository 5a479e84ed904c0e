package alertshttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/alerts"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

type stubScanner struct {
	digest alerts.Digest
	err    error
}

func (s stubScanner) Scan(ctx context.Context) (alerts.Digest, error) { return s.digest, s.err }

type stubRBAC struct{ perms []string }

func (s stubRBAC) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, nil
}

func serve(t *testing.T, scanner Scanner, user string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(nil, scanner, rbac.Middleware{Service: stubRBAC{perms: shared.RolePermissions(shared.RoleStaff)}})
	sessions := shared.NewSessionManager(nil, "amsilks_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(user)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	return rr
}

func TestAlertsEndpoint(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	digest := alerts.Digest{
		Date:     day,
		Today:    []alerts.Alert{{Kind: alerts.KindCheque, EntryID: 9, Counterparty: "Fatima", Amount: "1500", DueDate: day}},
		Tomorrow: []alerts.Alert{},
	}
	rr := serve(t, stubScanner{digest: digest}, "4")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body alerts.Digest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Today, 1)
	assert.Equal(t, int64(9), body.Today[0].EntryID)
	assert.Empty(t, body.Tomorrow)
}

func TestAlertsRequireLogin(t *testing.T) {
	rr := serve(t, stubScanner{}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAlertsScanFailure(t *testing.T) {
	rr := serve(t, stubScanner{err: errors.New("db down")}, "4")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
