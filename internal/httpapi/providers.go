package httpapi

import (
	"net/http"

	"leadmarket-platform/internal/providers"

	"github.com/gin-gonic/gin"
)

/* ===================== service catalog ===================== */

func (h Handlers) ListCatalog(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	services, err := h.Providers.ListCatalog(c.Request.Context(), activeOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

type createCatalogServiceRequest struct {
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

func (h Handlers) CreateCatalogService(c *gin.Context) {
	var req createCatalogServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	svc, err := h.Providers.CreateCatalogService(c.Request.Context(), req.ParentID, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h Handlers) SetCatalogServiceActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	svc, err := h.Providers.SetCatalogServiceActive(c.Request.Context(), c.Param("id"), req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

/* ===================== provider profile ===================== */

func (h Handlers) GetProviderProfile(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	p, err := h.Providers.GetProvider(c.Request.Context(), companyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type providerProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

func (h Handlers) UpsertProviderProfile(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req providerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	p, err := h.Providers.UpsertProvider(c.Request.Context(), providers.Provider{
		CompanyID: companyID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type providerStatusRequest struct {
	Status providers.ProviderStatus `json:"status"`
}

// SetProviderStatus suspends or reactivates a provider. Admin only.
func (h Handlers) SetProviderStatus(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	var req providerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	p, err := h.Providers.SetProviderStatus(c.Request.Context(), companyID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

/* ===================== offerings ===================== */

type addOfferingRequest struct {
	ServiceID string `json:"service_id"`
}

func (h Handlers) AddOffering(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req addOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	o, err := h.Providers.AddOffering(c.Request.Context(), companyID, req.ServiceID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h Handlers) ListOfferings(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	offerings, err := h.Providers.ListOfferings(c.Request.Context(), companyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings})
}

func (h Handlers) SetOfferingActive(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := h.Providers.SetOfferingActive(c.Request.Context(), companyID, c.Param("id"), req.Active); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ===================== service areas & preferences ===================== */

type replaceAreasRequest struct {
	Areas []providers.ServiceArea `json:"areas"`
}

func (h Handlers) ReplaceServiceAreas(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req replaceAreasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	areas, err := h.Providers.ReplaceServiceAreas(c.Request.Context(), companyID, req.Areas)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

func (h Handlers) ListServiceAreas(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	areas, err := h.Providers.ListServiceAreas(c.Request.Context(), companyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

func (h Handlers) GetPreferences(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	prefs, err := h.Providers.GetPreferences(c.Request.Context(), companyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

type preferencesRequest struct {
	MinBudgetMinor       int64 `json:"min_budget_minor"`
	PauseWhenBalanceZero bool  `json:"pause_when_balance_zero"`
}

func (h Handlers) UpdatePreferences(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	prefs, err := h.Providers.UpdatePreferences(c.Request.Context(), providers.Preferences{
		CompanyID:            companyID,
		MinBudgetMinor:       req.MinBudgetMinor,
		PauseWhenBalanceZero: req.PauseWhenBalanceZero,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
