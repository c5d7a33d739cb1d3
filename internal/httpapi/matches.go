package httpapi

import (
	"net/http"
	"strconv"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/matches"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListMatches(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	filter := matches.ListFilter{Status: matches.Status(c.Query("status"))}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	rows, err := h.Matches.List(c.Request.Context(), companyID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": rows})
}

func (h Handlers) GetMatch(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Matches.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ViewMatch stamps first-view time, used for response-time analytics.
func (h Handlers) ViewMatch(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Matches.MarkViewed(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// AcceptMatch buys the lead: reserves a slot and charges the wallet.
func (h Handlers) AcceptMatch(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Matches.Accept(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OffersAccepted.Inc()
		h.Metrics.WalletCharges.WithLabelValues("lead_match").Inc()
		h.Metrics.WalletChargeMinor.WithLabelValues("lead_match").Add(float64(m.LeadPriceMinor))
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     companyID,
			Type:          audit.EventLeadAccepted,
			ActorUserID:   userID,
			ActorRole:     role,
			LeadID:        m.LeadID,
			MatchID:       m.ID,
			TransactionID: m.ChargeTransactionID,
		})
	}
	c.JSON(http.StatusOK, m)
}

type declineRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h Handlers) DeclineMatch(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req declineRequest
	_ = c.ShouldBindJSON(&req)

	m, err := h.Matches.Decline(c.Request.Context(), companyID, c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OffersDeclined.Inc()
	}
	c.JSON(http.StatusOK, m)
}

type quoteRequest struct {
	AmountMinor int64  `json:"amount_minor"`
	Message     string `json:"message,omitempty"`
}

func (h Handlers) SubmitMatchQuote(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	m, err := h.Matches.SubmitQuote(c.Request.Context(), companyID, c.Param("id"), req.AmountMinor, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) ReportMatchOutcome(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req matches.OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	m, err := h.Matches.ReportOutcome(c.Request.Context(), companyID, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type matchRefundRequest struct {
	AmountMinor int64  `json:"amount_minor,omitempty"`
	Reason      string `json:"reason"`
}

// RefundMatch reverses a lead charge, capped at the original amount. Admin only.
func (h Handlers) RefundMatch(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	var req matchRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	m, err := h.Matches.Refund(c.Request.Context(), companyID, c.Param("id"), req.AmountMinor, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.WalletRefunds.Inc()
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     companyID,
			Type:          audit.EventLeadRefunded,
			ActorUserID:   userID,
			ActorRole:     role,
			LeadID:        m.LeadID,
			MatchID:       m.ID,
			TransactionID: m.RefundTransactionID,
			Message:       req.Reason,
		})
	}
	c.JSON(http.StatusOK, m)
}
