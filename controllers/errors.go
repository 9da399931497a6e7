package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

// respondServiceError maps service errors onto status codes. Errors the caller can act on
// carry a payload: the conflicting reservation, the early-exit options or the wallet gap.
func respondServiceError(c *gin.Context, err error) {
	var (
		conflict *services.ConflictError
		early    *services.EarlyExitError
		funds    *services.InsufficientFundsError
	)
	switch {
	case errors.As(err, &conflict):
		utils.RespondErrorData(c, http.StatusConflict, err, gin.H{
			"conflict":     conflict.Conflict,
			"can_override": true,
		})
	case errors.As(err, &early):
		utils.RespondErrorData(c, http.StatusConflict, err, gin.H{
			"early_exit": early.Options,
		})
	case errors.As(err, &funds):
		utils.RespondErrorData(c, http.StatusPaymentRequired, err, gin.H{
			"balance":      funds.Balance,
			"required":     funds.Required,
			"can_override": true,
		})
	case errors.Is(err, services.ErrTableAvailable):
		utils.RespondErrorData(c, http.StatusConflict, err, gin.H{"can_override": false})

	case errors.Is(err, services.ErrTableBusy),
		errors.Is(err, services.ErrSessionNotRunning),
		errors.Is(err, services.ErrReservationClosed),
		errors.Is(err, services.ErrAlreadyAutoBilled):
		utils.RespondError(c, http.StatusConflict, err)

	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrMenuItemNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrQueueEntryNotFound),
		errors.Is(err, services.ErrBillNotFound):
		utils.RespondError(c, http.StatusNotFound, err)

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrCustomerRequired):
		utils.RespondError(c, http.StatusBadRequest, err)

	default:
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal error"))
	}
}

// paramID reads a numeric path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
