package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/auth"
	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/metrics"
	"leadmarket-platform/internal/payments"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/providers"
	"leadmarket-platform/internal/rbac"
	"leadmarket-platform/internal/reporting"
	"leadmarket-platform/internal/wallet"
	"leadmarket-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth *auth.Manager

	Pricing   *pricing.Service
	Billing   *billing.Service
	Wallet    *wallet.Service
	Calls     *calls.Service
	Disputes  *disputes.Service
	Leads     *leads.Service
	Router    *leads.Engine
	Matches   *matches.Service
	Providers *providers.Service
	Payments  *payments.Service
	Reporting *reporting.Service
	Audit     *audit.Service

	Metrics *metrics.Metrics

	// DB backs the readiness probe; nil skips the ping (tests).
	DB *sql.DB

	// StripeWebhookSecret verifies payment webhook signatures.
	StripeWebhookSecret string
}

/* ===================== identity ===================== */

// identity pulls the caller's company from the request context. Handlers call
// this after RequireAccessToken + RequireCompany, so failure means a wiring bug.
func identity(c *gin.Context) (companyID string, ok bool) {
	cid, err := auth.CompanyID(c.Request.Context())
	if err != nil || cid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "company_id required"})
		return "", false
	}
	return cid, true
}

func actor(c *gin.Context) (userID, role string) {
	userID, _ = auth.UserID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return userID, role
}

/* ===================== auth ===================== */

type loginRequest struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This endpoint trusts its input. Real deployments must put credential
// verification (or an SSO exchange) in front of it.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.UserID == "" || req.CompanyID == "" || req.Role == "" {
		badRequest(c, "user_id, company_id, role required")
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{
		UserID:    req.UserID,
		CompanyID: req.CompanyID,
		Role:      req.Role,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether the instance can serve traffic. Liveness (Healthz)
// stays dependency-free so a database outage does not restart-loop the pods.
func (h Handlers) Readyz(c *gin.Context) {
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

/* ===================== middleware bundles ===================== */

// RequireCompanyAndAnyRole chains tenant isolation with an RBAC allowlist.
func RequireCompanyAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireCompany(), rbac.RequireAnyRole(roles...)}
}

// AdminRoles may manage platform-wide configuration.
func AdminRoles() []string { return []string{rbac.RoleOwner, rbac.RoleSuperAdmin} }

// ProviderRoles may act on their own company's marketplace data.
func ProviderRoles() []string {
	return []string{rbac.RoleOwner, rbac.RoleProvider, rbac.RoleSuperAdmin}
}

// FinanceRoles may move money.
func FinanceRoles() []string {
	return []string{rbac.RoleOwner, rbac.RoleFinance, rbac.RoleSuperAdmin}
}

// ReadRoles may view reporting data.
func ReadRoles() []string {
	return []string{rbac.RoleOwner, rbac.RoleProvider, rbac.RoleAnalyst, rbac.RoleFinance, rbac.RoleSuperAdmin}
}
