package main

import (
	"leadmarket-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// Route layout:
// - public: health, metrics, lead intake, inbound webhooks
// - auth:   token issuance
// - v1:     authenticated tenant API, RBAC per group
// - admin:  platform operations, cross-tenant by design

func registerPublicRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// Public intake and webhooks authenticate by other means: intake is
	// rate-limited per source IP, Stripe events are signature-verified,
	// call events are idempotent on provider_call_id.
	r.POST("/public/leads", h.SubmitLead)
	r.POST("/webhooks/calls", h.InboundCallWebhook)
	r.POST("/webhooks/stripe", h.StripeWebhook)
}

func registerAuthRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.POST("/auth/login", h.Login)
}

func registerProtectedRoutes(r *gin.Engine, h httpapi.Handlers, requireAuth gin.HandlerFunc) {
	v1 := r.Group("/v1", requireAuth)

	// Provider-facing marketplace surface.
	provider := v1.Group("", httpapi.RequireCompanyAndAnyRole(httpapi.ProviderRoles()...)...)
	{
		provider.GET("/profile", h.GetProviderProfile)
		provider.PUT("/profile", h.UpsertProviderProfile)
		provider.GET("/offerings", h.ListOfferings)
		provider.POST("/offerings", h.AddOffering)
		provider.PATCH("/offerings/:id", h.SetOfferingActive)
		provider.GET("/service-areas", h.ListServiceAreas)
		provider.PUT("/service-areas", h.ReplaceServiceAreas)
		provider.GET("/preferences", h.GetPreferences)
		provider.PUT("/preferences", h.UpdatePreferences)

		provider.GET("/matches", h.ListMatches)
		provider.GET("/matches/:id", h.GetMatch)
		provider.POST("/matches/:id/view", h.ViewMatch)
		provider.POST("/matches/:id/accept", h.AcceptMatch)
		provider.POST("/matches/:id/decline", h.DeclineMatch)
		provider.POST("/matches/:id/quote", h.SubmitMatchQuote)
		provider.POST("/matches/:id/outcome", h.ReportMatchOutcome)

		provider.GET("/calls", h.ListCalls)
		provider.GET("/calls/:id", h.GetCall)
		provider.POST("/calls/:id/process", h.ProcessCallBilling)

		provider.GET("/disputes", h.ListDisputes)
		provider.POST("/disputes", h.OpenDispute)
		provider.GET("/disputes/:id", h.GetDispute)
	}

	// Money movement.
	finance := v1.Group("", httpapi.RequireCompanyAndAnyRole(httpapi.FinanceRoles()...)...)
	{
		finance.GET("/wallet", h.GetWalletBalance)
		finance.GET("/wallet/transactions", h.ListWalletTransactions)
		finance.GET("/wallet/transactions/:id", h.GetWalletTransaction)
		finance.GET("/packages", h.ListCreditPackages)
		finance.POST("/checkout", h.StartCheckout)
		finance.GET("/payments", h.ListPayments)
	}

	// Reporting.
	read := v1.Group("", httpapi.RequireCompanyAndAnyRole(httpapi.ReadRoles()...)...)
	{
		read.GET("/catalog", h.ListCatalog)
		read.GET("/reports/billing-summary", h.BillingSummary)
		read.GET("/audit", h.ListAuditEvents)
	}

	// Platform administration. Cross-tenant endpoints take company_id in the
	// path; super_admin bypasses the role allowlist by RBAC rule.
	admin := r.Group("/admin", requireAuth)
	admin.Use(httpapi.RequireCompanyAndAnyRole(httpapi.AdminRoles()...)...)
	{
		admin.GET("/pricing-rules", h.ListPricingRules)
		admin.POST("/pricing-rules", h.CreatePricingRule)
		admin.GET("/pricing-rules/:id", h.GetPricingRule)
		admin.PUT("/pricing-rules/:id", h.UpdatePricingRule)
		admin.DELETE("/pricing-rules/:id", h.DeletePricingRule)

		admin.GET("/billing-settings", h.GetBillingSettings)
		admin.PUT("/billing-settings", h.UpdateBillingSettings)

		admin.GET("/leads", h.ListLeads)
		admin.GET("/leads/:id", h.GetLead)
		admin.POST("/leads/:id/route", h.RouteLead)
		admin.POST("/leads/:id/force-route", h.ForceRouteLead)

		admin.POST("/catalog", h.CreateCatalogService)
		admin.PATCH("/catalog/:id", h.SetCatalogServiceActive)
		admin.PUT("/providers/:company_id/status", h.SetProviderStatus)

		admin.POST("/companies/:company_id/calls/:id/waive", h.WaiveCall)
		admin.POST("/companies/:company_id/disputes/:id/review", h.StartDisputeReview)
		admin.POST("/companies/:company_id/disputes/:id/resolve", h.ResolveDispute)
		admin.POST("/companies/:company_id/matches/:id/refund", h.RefundMatch)
		admin.POST("/companies/:company_id/wallet/adjust", h.AdjustWallet)
		admin.GET("/companies/:company_id/audit", h.ListCompanyAuditEvents)

		admin.POST("/packages", h.CreateCreditPackage)
		admin.PATCH("/packages/:id", h.SetCreditPackageActive)
		admin.POST("/promo-codes", h.CreatePromoCode)

		admin.GET("/reports/lead-stats", h.LeadStats)
	}
}
