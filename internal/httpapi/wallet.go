package httpapi

import (
	"net/http"
	"strconv"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/wallet"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetWalletBalance(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	w, err := h.Wallet.Ensure(c.Request.Context(), companyID, "usd")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h Handlers) ListWalletTransactions(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	filter := wallet.TransactionFilter{Type: wallet.TransactionType(c.Query("type"))}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	txns, err := h.Wallet.ListTransactions(c.Request.Context(), companyID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h Handlers) GetWalletTransaction(c *gin.Context) {
	companyID, ok := identity(c)
	if !ok {
		return
	}
	txn, err := h.Wallet.GetTransaction(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// AdjustWallet posts a signed manual correction to a company's wallet.
// Admin/finance only; the ledger records who did it.
func (h Handlers) AdjustWallet(c *gin.Context) {
	companyID := c.Param("company_id")
	if companyID == "" {
		badRequest(c, "company_id required")
		return
	}
	var req wallet.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	userID, role := actor(c)
	req.AdminUserID = userID
	req.AdminRole = role

	txn, err := h.Wallet.Adjust(c.Request.Context(), companyID, req)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Record(c.Request.Context(), audit.Event{
			CompanyID:     companyID,
			Type:          audit.EventAdminAction,
			ActorUserID:   userID,
			ActorRole:     role,
			TransactionID: txn.ID,
			Message:       "wallet adjustment: " + req.Reason,
		})
	}
	c.JSON(http.StatusOK, txn)
}
