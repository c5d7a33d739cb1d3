package httpapi

import (
	"net/http"
	"strconv"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/disputes"

	"github.com/gin-gonic/gin"
)

func (h Handlers) OpenDispute(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req disputes.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	d, err := h.Disputes.Open(c.Request.Context(), companyID, req)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.DisputesOpened.Inc()
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:   companyID,
			Type:        audit.EventDisputeOpened,
			ActorUserID: userID,
			ActorRole:   role,
			CallID:      d.CallLogID,
			DisputeID:   d.ID,
		})
	}
	c.JSON(http.StatusCreated, d)
}

func (h Handlers) ListDisputes(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	filter := disputes.ListFilter{Status: disputes.Status(c.Query("status"))}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	rows, err := h.Disputes.List(c.Request.Context(), companyID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": rows})
}

func (h Handlers) GetDispute(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	d, err := h.Disputes.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// StartDisputeReview moves a pending dispute to under_review. Admin only.
func (h Handlers) StartDisputeReview(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	d, err := h.Disputes.StartReview(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ResolveDispute settles a dispute. Approved and partial outcomes refund the
// original charge through the wallet. Admin only.
func (h Handlers) ResolveDispute(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	var req disputes.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	userID, role := actor(c)
	if req.ResolvedBy == "" {
		req.ResolvedBy = userID
	}

	d, err := h.Disputes.Resolve(c.Request.Context(), companyID, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.DisputesClosed.WithLabelValues(string(d.Status)).Inc()
		if d.RefundAmountMinor > 0 {
			h.Metrics.WalletRefunds.Inc()
			h.Metrics.WalletRefundMinor.Add(float64(d.RefundAmountMinor))
		}
	}
	if h.Audit != nil {
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     companyID,
			Type:          audit.EventDisputeResolved,
			ActorUserID:   userID,
			ActorRole:     role,
			DisputeID:     d.ID,
			CallID:        d.CallLogID,
			TransactionID: d.RefundTransactionID,
			Message:       string(d.Status),
		})
	}
	c.JSON(http.StatusOK, d)
}
