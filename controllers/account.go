package controllers

import (
	"net/http"
	"strconv"

	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

// TransferInput defines the expected JSON structure for a transfer. Amount
// positivity and id shape are validated here, ahead of the ledger.
type TransferInput struct {
	FromAccountID uint  `json:"fromAccountId" binding:"required"`
	ToAccountID   uint  `json:"toAccountId" binding:"required"`
	Amount        int64 `json:"amount" binding:"required,gt=0"`
}

// GetAccounts lists the calling customer's accounts.
func GetAccounts(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	accounts, err := ledger().AccountsByCustomerID(customerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// GetAccountTransactions returns an account statement, newest entries first.
// Customers can only read statements of accounts they own.
func GetAccountTransactions(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid account ID format")
		return
	}

	account, err := ledger().AccountByID(uint(accountID))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if account.CustomerID != customerID && c.GetString("role") != utils.RoleAdmin {
		utils.RespondWithError(c, http.StatusForbidden, "Account belongs to another customer")
		return
	}

	transactions, err := ledger().TransactionsByAccountID(account.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// Transfer moves funds between two accounts. The source must belong to the
// calling customer.
func Transfer(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	var input TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	source, err := ledger().AccountByID(input.FromAccountID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if source.CustomerID != customerID && c.GetString("role") != utils.RoleAdmin {
		utils.RespondWithError(c, http.StatusForbidden, "Source account belongs to another customer")
		return
	}

	if err := ledger().TransferFunds(input.FromAccountID, input.ToAccountID, input.Amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	// Re-fetch: the ledger owns state, callers hold snapshots only
	updated, err := ledger().AccountByID(input.FromAccountID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Transfer successful",
		"fromAccount": updated,
	})
}
