package router

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/stickershop/internal/auth"
	"github.com/wellywell/stickershop/internal/config"
	"github.com/wellywell/stickershop/internal/evm"
	"github.com/wellywell/stickershop/internal/handlers"
	"github.com/wellywell/stickershop/internal/notify"
	"github.com/wellywell/stickershop/internal/types"
)

type stubStore struct{}

func (stubStore) Ping(ctx context.Context) error {
	return nil
}

func (stubStore) ListPacks(ctx context.Context) ([]types.StickerPack, error) {
	return []types.StickerPack{{ID: 1, Name: "Cool Cats", PriceCents: 399}}, nil
}

func (stubStore) CreatePending(ctx context.Context, packID int64, buyer types.BuyerInfo) (*types.Order, error) {
	return &types.Order{ID: 1, PackID: packID, PriceCents: 399, Status: types.PendingStatus}, nil
}

func (stubStore) Order(ctx context.Context, orderID int64) (*types.Order, error) {
	return &types.Order{ID: orderID, Status: types.PendingStatus}, nil
}

type stubPayments struct{}

func (stubPayments) CheckoutEnabled() bool {
	return false
}

func (stubPayments) OnchainEnabled() bool {
	return false
}

func (stubPayments) StartCheckout(ctx context.Context, orderID int64) (string, error) {
	return "", nil
}

func (stubPayments) HandleWebhook(ctx context.Context, raw []byte, signature string) error {
	return nil
}

func (stubPayments) VerifyOnchain(ctx context.Context, orderID int64, txHash string) (evm.Result, error) {
	return evm.Result{OK: true}, nil
}

func (stubPayments) AdminSetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error) {
	return types.PendingStatus, nil
}

type stubNotifications struct{}

func (stubNotifications) SendTest(ctx context.Context, to string, text string) (notify.Target, error) {
	return notify.ParseChatTarget(to), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *config.ServerConfig) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	return serve(t, &config.ServerConfig{AuthSecret: "secret", AuthCookieExpiresIn: 60, AdminPasswordHash: hash})
}

func serve(t *testing.T, conf *config.ServerConfig) (*httptest.Server, *config.ServerConfig) {
	h := handlers.NewHandlerSet(conf, stubStore{}, stubStore{}, stubPayments{}, stubNotifications{})
	server := httptest.NewServer(NewRouter(conf, h).Handler())
	t.Cleanup(server.Close)
	return server, conf
}

func TestAdminRejectsWellKnownSecrets(t *testing.T) {
	configured, _ := newTestServer(t)
	unconfigured, _ := serve(t, &config.ServerConfig{AuthCookieExpiresIn: 60})
	onlySecret, _ := serve(t, &config.ServerConfig{AuthSecret: "secret", AuthCookieExpiresIn: 60})

	forged, err := auth.BuildJWTString(auth.AdminUser, []byte("dev_secret"), time.Minute)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		server *httptest.Server
		path   string
		body   string
		status int
	}{
		{"configured status", configured, "/api/admin/orders/1/status", `{"status":"paid"}`, http.StatusUnauthorized},
		{"configured telegram", configured, "/api/admin/telegram/test", `{"to":"@a"}`, http.StatusUnauthorized},
		{"unconfigured status", unconfigured, "/api/admin/orders/1/status", `{"status":"paid"}`, http.StatusServiceUnavailable},
		{"unconfigured telegram", unconfigured, "/api/admin/telegram/test", `{"to":"@a"}`, http.StatusServiceUnavailable},
		{"unconfigured login", unconfigured, "/api/admin/login", `{"password":""}`, http.StatusServiceUnavailable},
		{"no password hash", onlySecret, "/api/admin/orders/1/status", `{"status":"paid"}`, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, tc.server.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: "_admin", Value: forged})
			res, err := tc.server.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
		})
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	server, conf := newTestServer(t)

	token, err := auth.BuildJWTString(auth.AdminUser, conf.Secret(), time.Minute)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		path   string
		body   string
		cookie bool
		status int
	}{
		{"status without cookie", "/api/admin/orders/1/status", `{"status":"paid"}`, false, http.StatusUnauthorized},
		{"status with cookie", "/api/admin/orders/1/status", `{"status":"paid"}`, true, http.StatusOK},
		{"telegram without cookie", "/api/admin/telegram/test", `{"to":"@a"}`, false, http.StatusUnauthorized},
		{"telegram with cookie", "/api/admin/telegram/test", `{"to":"@a"}`, true, http.StatusOK},
		{"login is public", "/api/admin/login", `{"password":"x"}`, false, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, server.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			if tc.cookie {
				req.AddCookie(&http.Cookie{Name: "_admin", Value: token})
			}
			res, err := server.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	server, _ := newTestServer(t)

	testCases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/packs", http.StatusOK},
		{http.MethodGet, "/api/orders/5", http.StatusOK},
		{http.MethodGet, "/api/evm/config", http.StatusBadRequest},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPut, "/api/orders", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, server.URL+tc.path, nil)
			require.NoError(t, err)
			res, err := server.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
		})
	}
}

func TestGzipRequestBody(t *testing.T) {
	server, _ := newTestServer(t)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"pack_id":1}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/orders", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Encoding", "gzip")
	res, err := server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}
