package controllers

import (
	"errors"
	"net/http"

	"onlinebank-backend/config"
	"onlinebank-backend/services"
	"onlinebank-backend/utils"

	"github.com/gin-gonic/gin"
)

func ledger() *services.Ledger {
	return services.NewLedger(config.DB)
}

// respondLedgerError folds the ledger's typed errors into HTTP statuses.
// Transient failures get 503 so clients know a retry is safe.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrAccountNotFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicatePhone):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrAccountInactive),
		errors.Is(err, services.ErrInsufficientFunds):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case services.IsRetryable(err):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Temporarily unavailable, please retry")
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}
