package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"leadmarket-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// parseRange reads from/to query params as RFC 3339. Defaults to the last 30
// days when absent.
func parseRange(c *gin.Context) (reporting.Range, bool) {
	now := time.Now().UTC()
	r := reporting.Range{From: now.AddDate(0, 0, -30), To: now}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "from must be RFC 3339")
			return reporting.Range{}, false
		}
		r.From = t.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "to must be RFC 3339")
			return reporting.Range{}, false
		}
		r.To = t.UTC()
	}
	return r, true
}

func (h Handlers) BillingSummary(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	r, ok := parseRange(c)
	if !ok {
		return
	}
	summary, err := h.Reporting.BillingSummary(c.Request.Context(), reporting.BillingSummaryRequest{
		CompanyID: companyID,
		Range:     r,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LeadStats reports platform-wide marketplace activity. Admin only.
func (h Handlers) LeadStats(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	stats, err := h.Reporting.LeadStats(c.Request.Context(), reporting.LeadStatsRequest{
		Range:     r,
		ServiceID: c.Query("service_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h Handlers) ListAuditEvents(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.Audit.List(c.Request.Context(), companyID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListCompanyAuditEvents lets admins inspect any company's trail.
func (h Handlers) ListCompanyAuditEvents(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.Audit.List(c.Request.Context(), companyID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
