package httpapi

import (
	"net/http"
	"strconv"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/calls"

	"github.com/gin-gonic/gin"
)

/* ===================== call webhook (public) ===================== */

// InboundCallWebhook receives tracking-provider call events. The endpoint is
// idempotent on provider_call_id, so providers may redeliver freely.
func (h Handlers) InboundCallWebhook(c *gin.Context) {
	req, err := calls.ParseInboundCallForm(c.Request)
	if err != nil {
		badRequest(c, "invalid form payload")
		return
	}

	call, result, err := h.Calls.Ingest(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.CallsIngested.Inc()
		if result.Billed {
			h.Metrics.CallsQualified.WithLabelValues("billed").Inc()
			h.Metrics.WalletCharges.WithLabelValues("call_log").Inc()
			h.Metrics.WalletChargeMinor.WithLabelValues("call_log").Add(float64(result.PriceMinor))
		} else if result.Reason != "" {
			h.Metrics.CallsQualified.WithLabelValues(result.Reason).Inc()
		}
	}
	if result.Billed && h.Audit != nil {
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     call.CompanyID,
			Type:          audit.EventCallBilled,
			CallID:        call.ID,
			TransactionID: result.TransactionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"call": call, "billing": result})
}

/* ===================== call management ===================== */

func (h Handlers) ListCalls(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	filter := calls.ListFilter{
		BillingStatus: calls.BillingStatus(c.Query("billing_status")),
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	rows, err := h.Calls.List(c.Request.Context(), companyID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

func (h Handlers) GetCall(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// ProcessCallBilling retries billing for a pending call, typically after a
// wallet top-up.
func (h Handlers) ProcessCallBilling(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	result, err := h.Calls.ProcessForBilling(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil && result.Billed {
		h.Metrics.CallsQualified.WithLabelValues("billed").Inc()
		h.Metrics.WalletCharges.WithLabelValues("call_log").Inc()
		h.Metrics.WalletChargeMinor.WithLabelValues("call_log").Add(float64(result.PriceMinor))
	}
	if result.Billed && h.Audit != nil {
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     companyID,
			Type:          audit.EventCallBilled,
			CallID:        result.CallID,
			TransactionID: result.TransactionID,
		})
	}
	c.JSON(http.StatusOK, result)
}

// WaiveCall marks a pending call as never billable. Admin only.
func (h Handlers) WaiveCall(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	call, err := h.Calls.Waive(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:   companyID,
			Type:        audit.EventAdminAction,
			ActorUserID: userID,
			ActorRole:   role,
			CallID:      call.ID,
			Message:     "call billing waived",
		})
	}
	c.JSON(http.StatusOK, call)
}
