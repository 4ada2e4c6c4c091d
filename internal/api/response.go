package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tower_backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// Every response uses the envelope {status: "success"|"error", ...}
// with HTTP 200 even on logical errors; the deployed clients of this
// API read the body only.

func respondSuccess(c *gin.Context, payload gin.H) {
	payload["status"] = "success"
	c.JSON(http.StatusOK, payload)
}

func respondError(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": message})
}

// errorMessage maps the ledger error taxonomy onto the client-facing
// message strings.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "Пользователь не найден"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Недостаточно средств"
	case errors.Is(err, domain.ErrInvalidFloorNumber):
		return "Неверный номер этажа"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "Сервис временно недоступен"
	default:
		return err.Error()
	}
}

// flexInt accepts a JSON number or a numeric string. The game's web
// clients send ids and amounts in both encodings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}
