package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/leads"

	"github.com/gin-gonic/gin"
)

/* ===================== public intake ===================== */

// SubmitLead is the public lead intake endpoint. Duplicates are stored for
// audit but reported as a conflict; spam submissions are parked silently.
func (h Handlers) SubmitLead(c *gin.Context) {
	var req leads.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	req.SourceIP = c.ClientIP()

	lead, err := h.Leads.Create(c.Request.Context(), req)
	if errors.Is(err, leads.ErrDuplicate) {
		if h.Metrics != nil {
			h.Metrics.LeadsCreated.WithLabelValues(string(lead.Status)).Inc()
		}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "lead": lead})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.LeadsCreated.WithLabelValues(string(lead.Status)).Inc()
	}
	if h.Audit != nil {
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID: audit.PlatformCompanyID,
			Type:      audit.EventLeadCreated,
			IPAddress: req.SourceIP,
			LeadID:    lead.ID,
			Message:   string(lead.Status),
		})
	}
	c.JSON(http.StatusCreated, lead)
}

/* ===================== lead management ===================== */

func (h Handlers) ListLeads(c *gin.Context) {
	filter := leads.ListFilter{
		Status:    leads.Status(c.Query("status")),
		ServiceID: c.Query("service_id"),
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	rows, err := h.Leads.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": rows})
}

func (h Handlers) GetLead(c *gin.Context) {
	lead, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

/* ===================== routing ===================== */

// RouteLead runs the routing engine for a new lead and creates offers for the
// top-scoring eligible providers.
func (h Handlers) RouteLead(c *gin.Context) {
	result, err := h.Router.Route(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.LeadsRouted.WithLabelValues(string(result.Status)).Inc()
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:   audit.PlatformCompanyID,
			Type:        audit.EventLeadRouted,
			ActorUserID: userID,
			ActorRole:   role,
			LeadID:      result.LeadID,
			Message:     string(result.Status),
		})
	}
	c.JSON(http.StatusOK, result)
}

type forceRouteRequest struct {
	CompanyID string `json:"company_id"`
}

// ForceRouteLead offers a lead to a specific provider, bypassing eligibility
// gates. Admin only.
func (h Handlers) ForceRouteLead(c *gin.Context) {
	var req forceRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CompanyID == "" {
		badRequest(c, "company_id required")
		return
	}
	result, err := h.Router.ForceRoute(c.Request.Context(), c.Param("id"), req.CompanyID)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Audit != nil {
		userID, role := actor(c)
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:   req.CompanyID,
			Type:        audit.EventAdminAction,
			ActorUserID: userID,
			ActorRole:   role,
			LeadID:      result.LeadID,
			Message:     "lead force-routed",
		})
	}
	c.JSON(http.StatusOK, result)
}
