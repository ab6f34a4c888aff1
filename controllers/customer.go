package controllers

import (
	"net/http"
	"strconv"

	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetCustomers lists all customers. Admin only.
func GetCustomers(c *gin.Context) {
	customers, err := ledger().AllCustomers()
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a single customer with their accounts and loans.
func GetCustomer(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	customer, err := ledger().CustomerByID(uint(customerID))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	accounts, err := ledger().AccountsByCustomerID(customer.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	loans, err := ledger().LoansByCustomerID(customer.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
		"accounts": accounts,
		"loans":    loans,
	})
}

// DeleteCustomer removes a customer and every dependent record. Destructive
// and irreversible — the client confirms intent before calling. Admin only.
func DeleteCustomer(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	deleted, err := ledger().DeleteCustomer(uint(customerID))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if !deleted {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
