package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/payments"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/providers"
	"leadmarket-platform/internal/reporting"
	"leadmarket-platform/internal/wallet"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP statuses. The taxonomy is small on
// purpose: validation 400/422, money 402, missing 404, state conflicts 409,
// throttling 429, everything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, leads.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrInvalidRule),
		errors.Is(err, billing.ErrInvalidSettings),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, payments.ErrPromoInactive),
		errors.Is(err, payments.ErrPromoExpired),
		errors.Is(err, payments.ErrPromoMinPurchase),
		errors.Is(err, leads.ErrInvalidArgument),
		errors.Is(err, matches.ErrInvalidArgument),
		errors.Is(err, matches.ErrInvalidOutcome),
		errors.Is(err, wallet.ErrInvalidArgument),
		errors.Is(err, calls.ErrInvalidArgument),
		errors.Is(err, disputes.ErrInvalidArgument),
		errors.Is(err, disputes.ErrInvalidOutcome),
		errors.Is(err, disputes.ErrRefundPending),
		errors.Is(err, providers.ErrInvalidArgument),
		errors.Is(err, payments.ErrInvalidArgument):
		return http.StatusBadRequest

	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	case errors.Is(err, leads.ErrNotFound),
		errors.Is(err, pricing.ErrNotFound),
		errors.Is(err, matches.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, calls.ErrNotFound),
		errors.Is(err, disputes.ErrNotFound),
		errors.Is(err, providers.ErrNotFound),
		errors.Is(err, payments.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, leads.ErrDuplicate),
		errors.Is(err, leads.ErrNotRoutable),
		errors.Is(err, providers.ErrConflict),
		errors.Is(err, matches.ErrLeadSoldOut),
		errors.Is(err, matches.ErrOfferExpired),
		errors.Is(err, matches.ErrNotOpen),
		errors.Is(err, matches.ErrNotAccepted),
		errors.Is(err, matches.ErrNotRefundable),
		errors.Is(err, wallet.ErrWalletDisabled),
		errors.Is(err, wallet.ErrRefundExceedsCharge),
		errors.Is(err, wallet.ErrNotRefundable),
		errors.Is(err, calls.ErrNotPending),
		errors.Is(err, disputes.ErrCallNotBilled),
		errors.Is(err, disputes.ErrWindowClosed),
		errors.Is(err, disputes.ErrAlreadyOpen),
		errors.Is(err, disputes.ErrAlreadyResolved),
		errors.Is(err, disputes.ErrRefundTooLarge),
		errors.Is(err, payments.ErrNotPending),
		errors.Is(err, payments.ErrPromoExhausted):
		return http.StatusConflict

	case errors.Is(err, leads.ErrRateLimited):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// fail writes a JSON error response. Internal errors are logged but never
// leaked to the client.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
