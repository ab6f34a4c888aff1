package controllers

import (
	"net/http"

	"onlinebank-backend/config"
	"onlinebank-backend/models"
	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview summarizes the calling customer's position: accounts,
// total balance, loans and the most recent ledger entries.
func GetDashboardOverview(c *gin.Context) {
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

	var totalBalance int64
	accountIDs := make([]uint, 0, len(accounts))
	for _, account := range accounts {
		totalBalance += account.Balance
		accountIDs = append(accountIDs, account.ID)
	}

	recentTransactions := []models.Transaction{}
	if len(accountIDs) > 0 {
		if err := config.DB.
			Where("from_id IN ? OR to_id IN ?", accountIDs, accountIDs).
			Order("id DESC").Limit(5).
			Find(&recentTransactions).Error; err != nil {
			respondLedgerError(c, err)
			return
		}
	}

	loans, err := ledger().LoansByCustomerID(customerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts":           accounts,
		"totalBalance":       totalBalance,
		"loans":              loans,
		"recentTransactions": recentTransactions,
	})
}

// GetAdminDashboard summarizes the whole book. Admin only.
func GetAdminDashboard(c *gin.Context) {
	var totalCustomers, totalAccounts, totalLoans int64
	config.DB.Model(&models.Customer{}).Count(&totalCustomers)
	config.DB.Model(&models.Account{}).Count(&totalAccounts)
	config.DB.Model(&models.Loan{}).Count(&totalLoans)

	var totalBalance, loanBook int64
	config.DB.Model(&models.Account{}).Select("COALESCE(SUM(balance), 0)").Scan(&totalBalance)
	config.DB.Model(&models.Loan{}).Select("COALESCE(SUM(amount), 0)").Scan(&loanBook)

	var lastAudit models.AuditLog
	audit := gin.H{"status": "never run"}
	if err := config.DB.Order("id DESC").First(&lastAudit).Error; err == nil {
		audit = gin.H{
			"status": lastAudit.Status,
			"ranAt":  lastAudit.RanAt,
			"drift":  lastAudit.Drift,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCustomers": totalCustomers,
		"totalAccounts":  totalAccounts,
		"totalBalance":   totalBalance,
		"totalLoans":     totalLoans,
		"loanBook":       loanBook,
		"lastAudit":      audit,
	})
}
