package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivan2214/ecommerce/internal/service"
)

// fail writes the {error} body every action endpoint uses.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// failFrom maps service errors onto HTTP. Expected (business/validation)
// errors keep their message; anything else is logged with detail and
// surfaced as a generic failure.
func failFrom(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		fail(c, http.StatusConflict, stockErr.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailNotVerified):
		fail(c, http.StatusForbidden, "verify your email before signing in")
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCodeInvalid),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidTransition):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "something went wrong")
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
