package httpapi

import (
	"net/http"
	"strconv"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/pricing"

	"github.com/gin-gonic/gin"
)

/* ===================== pricing rules ===================== */

func (h Handlers) ListPricingRules(c *gin.Context) {
	rules, err := h.Pricing.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h Handlers) GetPricingRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid rule id")
		return
	}
	rule, err := h.Pricing.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h Handlers) CreatePricingRule(c *gin.Context) {
	var rule pricing.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		badRequest(c, "invalid json")
		return
	}
	created, err := h.Pricing.Create(c.Request.Context(), rule)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) UpdatePricingRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid rule id")
		return
	}
	var rule pricing.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		badRequest(c, "invalid json")
		return
	}
	rule.ID = id
	updated, err := h.Pricing.Update(c.Request.Context(), rule)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h Handlers) DeletePricingRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid rule id")
		return
	}
	if err := h.Pricing.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ===================== billing settings ===================== */

func (h Handlers) GetBillingSettings(c *gin.Context) {
	settings, err := h.Billing.Get(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h Handlers) UpdateBillingSettings(c *gin.Context) {
	var settings billing.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, "invalid json")
		return
	}
	updated, err := h.Billing.Update(c.Request.Context(), settings)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
