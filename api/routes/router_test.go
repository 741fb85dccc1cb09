package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wholesaledesk/ordering-backend/internal/orders"
	pkgAuth "github.com/wholesaledesk/ordering-backend/pkg/auth"
	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s stubUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type stubOrders struct {
	orders.Service
	converted int
}

func (s *stubOrders) Convert(_ context.Context, input orders.ConvertInput) (*orders.OrderDTO, error) {
	s.converted++
	return &orders.OrderDTO{ID: uuid.New(), OrderNumber: int64(s.converted), CreatedByUserID: input.UserID}, nil
}

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	user    *models.User
	orders  *stubOrders
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	srv := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	store := redis.NewFromClient(raw)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "orderdesk"},
	}
	user := &models.User{ID: uuid.New(), HasFullAccess: true}
	ordersSvc := &stubOrders{}

	handler := NewRouter(Dependencies{
		Config:         cfg,
		Logger:         logger.Nop(),
		DB:             stubPinger{},
		Redis:          store,
		Idempotency:    store,
		Users:          stubUsers{users: map[uuid.UUID]*models.User{user.ID: user}},
		Orders:         ordersSvc,
		MetricsHandler: http.NotFoundHandler(),
	})
	return routerFixture{handler: handler, cfg: cfg, user: user, orders: ordersSvc}
}

func (f routerFixture) bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	signer, err := pkgAuth.NewSigner(f.cfg.JWT, time.Hour)
	require.NoError(t, err)
	token, err := signer.Sign(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotEmpty(t, resp.Header().Get("X-Request-Id"), path)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/access", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAPIRejectsUnknownUser(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/access", nil)
	req.Header.Set("Authorization", f.bearer(t, uuid.New()))
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAccessRoute(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/access", nil)
	req.Header.Set("Authorization", f.bearer(t, f.user.ID))
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"can_see_pricing_and_stock":true`)
}

func TestMissingServiceAnswersInternal(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", f.bearer(t, f.user.ID))
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"order_type":"standard","payment_method":"bank_transfer"}`

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Authorization", f.bearer(t, f.user.ID))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp := httptest.NewRecorder()
		f.handler.ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusBadRequest, send("").Code)

	first := send("checkout-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := send("checkout-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, f.orders.converted)
}
