package controllers

import (
	"net/http"
	"os"
	"strconv"

	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

type SignupInput struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	InitialBalance  int64  `json:"initialBalance" binding:"min=0"`
}

type LoginInput struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a customer with an optional initial deposit. The ledger
// creates the auth identity, customer, savings account and deposit
// transaction as one unit.
func Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	customerID, err := ledger().RegisterCustomerWithInitialBalance(
		input.FirstName, input.LastName, input.Phone, input.Password, input.InitialBalance)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	token, err := utils.GenerateToken(customerID, roleForPhone(input.Phone))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"customer": gin.H{
			"id":        customerID,
			"firstName": input.FirstName,
			"lastName":  input.LastName,
			"phone":     input.Phone,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	customer, err := ledger().CustomerByPhone(input.Phone)
	if err != nil {
		// Same response for unknown phone and bad password
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(input.Password, customer.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(customer.ID, roleForPhone(customer.Phone))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"customer": gin.H{
			"id":        customer.ID,
			"firstName": customer.FirstName,
			"lastName":  customer.LastName,
			"phone":     customer.Phone,
		},
	})
}

func Me(c *gin.Context) {
	customerID, ok := utils.CustomerIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
		return
	}

	customer, err := ledger().CustomerByID(customerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func roleForPhone(phone string) string {
	if admin := os.Getenv("ADMIN_PHONE"); admin != "" && phone == admin {
		return utils.RoleAdmin
	}
	return utils.RoleCustomer
}

// Cookie lifetime follows the token expiry, so both honor JWT_EXPIRY_HOURS.
func setTokenCookie(c *gin.Context, token string) {
	expiryHours := 24
	if env := os.Getenv("JWT_EXPIRY_HOURS"); env != "" {
		if h, err := strconv.Atoi(env); err == nil {
			expiryHours = h
		}
	}
	maxAge := expiryHours * 3600

	c.SetCookie(
		"token",
		token,
		maxAge,
		"/",
		"",
		true,
		true,
	)
}
