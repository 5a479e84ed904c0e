package auth_test

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
	"golang.org/x/crypto/bcrypt"

	"github.com/amsilks/amsilks-erp/internal/auth"
	"github.com/amsilks/amsilks-erp/internal/shared"
	_ "github.com/amsilks/amsilks-erp/testing"
)

type stubRepo struct {
	users    map[string]*auth.User
	sessions map[string]int64
}

func newStubRepo(t *testing.T) *stubRepo {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubRepo{
		users: map[string]*auth.User{
			"mariam": {ID: 7, Username: "mariam", Name: "Mariam", Role: shared.RoleStaff, PasswordHash: string(hashed), IsActive: true},
			"former": {ID: 8, Username: "former", Name: "Former", Role: shared.RoleStaff, PasswordHash: string(hashed), IsActive: false},
		},
		sessions: map[string]int64{},
	}
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	if u, ok := s.users[strings.ToLower(username)]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateUser(ctx context.Context, u auth.User) (*auth.User, error) {
	if _, taken := s.users[u.Username]; taken {
		return nil, shared.ErrConflict
	}
	u.ID = int64(len(s.users) + 100)
	u.IsActive = true
	s.users[u.Username] = &u
	return &u, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	repo     *stubRepo
	mr       *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	repo := newStubRepo(t)
	handler := auth.NewHandler(nil, auth.NewService(repo), sessions, shared.NewCSRFManager("csrfsecret"))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, sessions.Commit(ctx, w, req, sess))
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	handler.MountRoutes(r)
	return &harness{router: r, sessions: sessions, repo: repo, mr: mr}
}

func (h *harness) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestLoginRotatesSessionAndStoresUser(t *testing.T) {
	h := newHarness(t)

	first := h.do(http.MethodGet, "/auth/csrf", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	anon := sessionCookie(t, first)

	rr := h.do(http.MethodPost, "/auth/login", `{"username":"Mariam","password":"correctpass"}`, anon)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		UserID    int64  `json:"user_id"`
		Name      string `json:"name"`
		Role      string `json:"role"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, "Mariam", body.Name)
	assert.Equal(t, shared.RoleStaff, body.Role)
	assert.NotEmpty(t, body.CSRFToken)

	authed := sessionCookie(t, rr)
	assert.NotEqual(t, anon.Value, authed.Value)
	assert.False(t, h.mr.Exists("session:"+anon.Value))
	assert.Equal(t, int64(7), h.repo.sessions[authed.Value])

	me := h.do(http.MethodGet, "/auth/me", "", authed)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	assert.Contains(t, me.Body.String(), `"name":"Mariam"`)

	out := h.do(http.MethodPost, "/auth/logout", "", authed)
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.False(t, h.mr.Exists("session:"+authed.Value))
	assert.Empty(t, h.repo.sessions)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name string
		body string
		code int
	}{
		{"wrong password", `{"username":"mariam","password":"wrongpass"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"correctpass"}`, http.StatusUnauthorized},
		{"inactive user", `{"username":"former","password":"correctpass"}`, http.StatusUnauthorized},
		{"short password", `{"username":"mariam","password":"short"}`, http.StatusBadRequest},
		{"unknown field", `{"email":"x@y.z"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := h.do(http.MethodPost, "/auth/login", tc.body, nil)
			assert.Equal(t, tc.code, rr.Code, rr.Body.String())
		})
	}
}

func TestMeRequiresLogin(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateUser(t *testing.T) {
	repo := newStubRepo(t)
	svc := auth.NewService(repo)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, auth.NewUser{Username: "owner", Role: "Admin", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "owner", u.Name)
	assert.Equal(t, shared.RoleAdmin, u.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("longenough")))

	role, err := svc.UserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, role)

	_, err = svc.CreateUser(ctx, auth.NewUser{Username: "x", Role: "manager", Password: "longenough"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.CreateUser(ctx, auth.NewUser{Username: "x", Role: "staff", Password: "short"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UserRole(ctx, 8)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
