package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xolanidube/mzansi-market-sub000/config"
	"github.com/xolanidube/mzansi-market-sub000/internal/auth"
	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
	"github.com/xolanidube/mzansi-market-sub000/internal/storetest"
)

type testEnv struct {
	engine      *gin.Engine
	mem         *storetest.Memory
	cfg         *config.Config
	wallets     *service.WalletService
	withdrawals *service.WithdrawalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-secret",
			RefreshSecret: "test-refresh",
			AccessExpiry:  time.Hour,
			RefreshExpiry: time.Hour,
			Issuer:        "test",
		},
	}
	mem := storetest.NewMemory()

	authSvc := service.NewAuthService(cfg, mem.Users())
	walletSvc := service.NewWalletService(mem.Ledger(), mem.Withdrawals())
	withdrawalSvc := service.NewWithdrawalService(mem.Ledger(), mem.Withdrawals(), decimal.NewFromInt(50))
	notifSvc := service.NewNotificationService(mem.Notifications())
	processor := service.NewAdminActionProcessor(mem.Users(), withdrawalSvc, notifSvc)

	authHandler := NewAuthHandler(authSvc)
	walletHandler := NewWalletHandler(walletSvc)
	withdrawalHandler := NewWithdrawalHandler(withdrawalSvc, notifSvc)
	notificationHandler := NewNotificationHandler(notifSvc)
	adminHandler := NewAdminHandler(processor, withdrawalSvc, walletSvc)

	r := gin.New()
	authMw := middleware.AuthRequired(&cfg.JWT)
	api := r.Group("/api/v1")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	wallet := api.Group("/wallet", authMw)
	wallet.GET("", walletHandler.GetWallet)
	wallet.GET("/withdrawals", withdrawalHandler.ListMine)
	wallet.POST("/withdrawals", withdrawalHandler.Create)
	wallet.DELETE("/withdrawals/:id", withdrawalHandler.Cancel)

	notifications := api.Group("/notifications", authMw)
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	admin := api.Group("/admin", authMw, middleware.AdminRequired())
	admin.GET("/withdrawals", adminHandler.ListWithdrawals)
	admin.POST("/withdrawals", adminHandler.ProcessWithdrawal)
	admin.POST("/wallets/:userID/adjust", adminHandler.AdjustWallet)
	admin.GET("/wallets/:userID/audit", adminHandler.AuditWallet)

	return &testEnv{
		engine:      r,
		mem:         mem,
		cfg:         cfg,
		wallets:     walletSvc,
		withdrawals: withdrawalSvc,
	}
}

func (e *testEnv) token(t *testing.T, userID uint, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(&e.cfg.JWT, userID, "user@test", role)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) credit(t *testing.T, userID uint, amount string) {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	_, err = e.wallets.Credit(context.Background(), userID, d, "booking completed", "")
	require.NoError(t, err)
}

func (e *testEnv) seedProviderWithBalance(t *testing.T, amount string) (uint, string) {
	t.Helper()
	id := e.mem.SeedUser(domain.RoleProvider)
	e.credit(t, id, amount)
	return id, e.token(t, id, domain.RoleProvider)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var testWithdrawBody = map[string]interface{}{
	"amount":         "100",
	"bank_name":      "Capitec",
	"account_number": "1400000001",
	"account_holder": "Sipho Ndlovu",
	"branch_code":    "470010",
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
