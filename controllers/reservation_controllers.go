package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: reservations}
}

// GetReservations -> ?status= &table_id=
func (rc *ReservationController) GetReservations(c *gin.Context) {
	list, err := rc.Reservations.List(c.Request.Context(), c.Query("status"), queryUint(c, "table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", list)
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Reservations.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", res)
}

func (rc *ReservationController) CancelReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := rc.Reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", res)
}

// CheckConflict -> conflict=false, or the reservation in the way
func (rc *ReservationController) CheckConflict(c *gin.Context) {
	var req services.CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	conflict, err := rc.Reservations.CheckConflict(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Conflict check", gin.H{
		"conflict": conflict != nil,
		"detail":   conflict,
	})
}
