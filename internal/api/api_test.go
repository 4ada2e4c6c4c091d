package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tower_backend/internal/config"
	"tower_backend/internal/domain"
	"tower_backend/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Payment{}, &domain.Referral{}))

	cfg := &config.Config{
		FloorPrice:       500,
		ReferrerBonus:    100,
		ReferredBonus:    50,
		ReferralLinkTmpl: "https://t.me/BuildYourTowerBot?start=ref%s",
	}
	svc := ledger.NewService(db, cfg)

	r := gin.New()
	r.GET("/", HomeHandler)
	apiGroup := r.Group("/api")
	apiGroup.GET("/test", TestHandler)
	apiGroup.POST("/test", TestHandler)
	apiGroup.POST("/stats", StatsHandler(svc, nil))
	apiGroup.POST("/payment", PaymentHandler(svc, nil))
	apiGroup.POST("/buy_floor", BuyFloorHandler(svc, nil))
	apiGroup.POST("/referral", ReferralHandler(svc, nil))
	apiGroup.GET("/debug", DebugHandler(db))
	apiGroup.GET("/health", HealthHandler(db, nil))
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body string) map[string]any {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	// Logical errors still answer 200; the envelope carries the outcome
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTestEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodGet, "/api/test", "")
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "API работает отлично!", resp["message"])
	assert.NotEmpty(t, resp["timestamp"])

	resp = doJSON(t, r, http.MethodPost, "/api/test", "{}")
	assert.Equal(t, "success", resp["status"])
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 42}`)
	require.Equal(t, "success", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(0), data["balance"])
	assert.Equal(t, float64(1), data["floors"])
	assert.Equal(t, float64(0), data["referrals"])
	code := data["referral_code"].(string)
	assert.Len(t, code, 8)
	assert.Equal(t, "https://t.me/BuildYourTowerBot?start=ref"+code, data["referral_link"])

	// Missing user_id
	resp = doJSON(t, r, http.MethodPost, "/api/stats", `{}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Не указан user_id", resp["message"])

	// user_id as a numeric string is accepted
	resp = doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": "42"}`)
	assert.Equal(t, "success", resp["status"])
}

func TestPaymentEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": 600, "method": "card"}`)
	require.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(600), resp["new_balance"])
	assert.Equal(t, "Баланс пополнен на 600 руб.!", resp["message"])

	// Amount as string
	resp = doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": "150"}`)
	require.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(750), resp["new_balance"])

	resp = doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": "abc"}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Неверный формат суммы", resp["message"])

	resp = doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": -5}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Сумма должна быть положительной", resp["message"])

	resp = doJSON(t, r, http.MethodPost, "/api/payment", `{"amount": 100}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Не указан user_id или amount", resp["message"])

	// A null amount is absent, not zero
	resp = doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": null}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Не указан user_id или amount", resp["message"])
}

func TestBuyFloorEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/buy_floor", `{"user_id": 42, "floor_number": 2}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Пользователь не найден", resp["message"])

	doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": 600}`)

	resp = doJSON(t, r, http.MethodPost, "/api/buy_floor", `{"user_id": 42, "floor_number": 2}`)
	require.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(100), resp["new_balance"])
	assert.Equal(t, float64(2), resp["new_floors"])
	assert.Equal(t, "Этаж 2 построен!", resp["message"])

	// Same floor again: rejected, balance untouched
	resp = doJSON(t, r, http.MethodPost, "/api/buy_floor", `{"user_id": 42, "floor_number": 2}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Неверный номер этажа", resp["message"])

	resp = doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 42}`)
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(100), data["balance"])
	assert.Equal(t, float64(2), data["floors"])

	// Broke again: funds error wins over floor validity
	resp = doJSON(t, r, http.MethodPost, "/api/buy_floor", `{"user_id": 42, "floor_number": 3}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Недостаточно средств", resp["message"])
}

func TestReferralEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 1}`)
	code := resp["data"].(map[string]any)["referral_code"].(string)

	resp = doJSON(t, r, http.MethodPost, "/api/referral", fmt.Sprintf(`{"referrer_code": %q, "referred_id": 2}`, code))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "Реферал зарегистрирован", resp["message"])

	resp = doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 1}`)
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(1), data["referrals"])
	assert.Equal(t, float64(100), data["balance"])
	assert.Equal(t, float64(100), data["total_referral_income"])

	// Second attribution of the same referred user changes nothing
	resp = doJSON(t, r, http.MethodPost, "/api/referral", fmt.Sprintf(`{"referrer_code": %q, "referred_id": 2}`, code))
	assert.Equal(t, "success", resp["status"])
	resp = doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 1}`)
	assert.Equal(t, float64(1), resp["data"].(map[string]any)["referrals"])

	// Unknown code still reports success, by design
	resp = doJSON(t, r, http.MethodPost, "/api/referral", `{"referrer_code": "deadbeef", "referred_id": 3}`)
	assert.Equal(t, "success", resp["status"])

	resp = doJSON(t, r, http.MethodPost, "/api/referral", `{"referred_id": 3}`)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Не указаны данные реферала", resp["message"])
}

func TestDebugEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	doJSON(t, r, http.MethodPost, "/api/payment", `{"user_id": 42, "amount": 600}`)
	doJSON(t, r, http.MethodPost, "/api/stats", `{"user_id": 7}`)

	resp := doJSON(t, r, http.MethodGet, "/api/debug", "")
	require.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(2), resp["users"])
	assert.Equal(t, float64(1), resp["payments"])
	assert.Equal(t, float64(0), resp["referrals"])
	tables := resp["tables"].([]any)
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "payments")
	assert.Contains(t, tables, "referrals")
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	resp := doJSON(t, r, http.MethodGet, "/api/health", "")
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.Equal(t, "disabled", resp["redis"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestHomeEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Сервер работает")
}
