package controllers

import (
	"net/http"

	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

// ApplyLoanInput defines the expected JSON structure for a loan application
type ApplyLoanInput struct {
	Amount   int64 `json:"amount" binding:"required,gt=0"`
	BranchID int   `json:"branchId" binding:"required"`
}

// ApplyLoan originates a loan for the calling customer. The LOAN account is
// created by the ledger on first use.
func ApplyLoan(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	var input ApplyLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := ledger().TakeLoan(customerID, input.Amount, input.BranchID); err != nil {
		respondLedgerError(c, err)
		return
	}

	loans, err := ledger().LoansByCustomerID(customerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Loan application successful",
		"loans":   loans,
	})
}

// GetLoans lists the calling customer's loans.
func GetLoans(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	loans, err := ledger().LoansByCustomerID(customerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}

// GetAllLoans lists every loan in the book. Admin only.
func GetAllLoans(c *gin.Context) {
	loans, err := ledger().AllLoans()
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}
