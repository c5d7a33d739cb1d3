package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"leadmarket-platform/internal/payments"

	"github.com/gin-gonic/gin"
)

/* ===================== packages & promos ===================== */

func (h Handlers) ListCreditPackages(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	pkgs, err := h.Payments.ListPackages(c.Request.Context(), activeOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

func (h Handlers) CreateCreditPackage(c *gin.Context) {
	var pkg payments.CreditPackage
	if err := c.ShouldBindJSON(&pkg); err != nil {
		badRequest(c, "invalid json")
		return
	}
	created, err := h.Payments.CreatePackage(c.Request.Context(), pkg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) SetCreditPackageActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	pkg, err := h.Payments.SetPackageActive(c.Request.Context(), c.Param("id"), req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (h Handlers) CreatePromoCode(c *gin.Context) {
	var promo payments.PromoCode
	if err := c.ShouldBindJSON(&promo); err != nil {
		badRequest(c, "invalid json")
		return
	}
	created, err := h.Payments.CreatePromo(c.Request.Context(), promo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

/* ===================== checkout ===================== */

func (h Handlers) StartCheckout(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req payments.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	result, err := h.Payments.StartCheckout(c.Request.Context(), companyID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h Handlers) ListPayments(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	rows, err := h.Payments.ListPayments(c.Request.Context(), companyID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": rows})
}

/* ===================== stripe webhook (public) ===================== */

// StripeWebhook settles payments from Stripe checkout events. Always answers
// 200 for verified events we handle or deliberately ignore, so Stripe stops
// redelivering.
func (h Handlers) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		badRequest(c, "unreadable payload")
		return
	}

	event, err := payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.StripeWebhookSecret)
	if errors.Is(err, payments.ErrUnhandledEvent) {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		badRequest(c, "invalid webhook signature")
		return
	}
	if event.PaymentID == "" {
		badRequest(c, "payment_id metadata missing")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		payment, err := h.Payments.ConfirmPayment(c.Request.Context(), event.PaymentID)
		if err != nil {
			fail(c, err)
			return
		}
		if h.Metrics != nil {
			h.Metrics.PaymentsSettled.WithLabelValues(string(payment.Status)).Inc()
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "payment": payment})
	case "checkout.session.expired":
		payment, err := h.Payments.FailPayment(c.Request.Context(), event.PaymentID)
		if err != nil {
			fail(c, err)
			return
		}
		if h.Metrics != nil {
			h.Metrics.PaymentsSettled.WithLabelValues(string(payment.Status)).Inc()
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "payment": payment})
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
