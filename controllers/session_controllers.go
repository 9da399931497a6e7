package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

// SessionController serves /activetables.
type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// GetActiveTables -> running sessions with live estimates
func (sc *SessionController) GetActiveTables(c *gin.Context) {
	views, err := sc.Sessions.Views(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active tables", views)
}

// StartSession -> POST /activetables/start
func (sc *SessionController) StartSession(c *gin.Context) {
	var req services.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.Start(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", session)
}

func (sc *SessionController) GetActiveTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := sc.Sessions.View(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active table", view)
}

// UpdateActiveTable -> PUT /activetables/:id, field-level patches
func (sc *SessionController) UpdateActiveTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.Patch(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session updated", session)
}

func (sc *SessionController) GetEstimate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := sc.Sessions.View(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Estimate", view.Estimate)
}

// GetEarlyExit -> the two billing options, or early_exit=false when none apply
func (sc *SessionController) GetEarlyExit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := sc.Sessions.View(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Early exit", gin.H{
		"early_exit": view.EarlyExit != nil,
		"options":    view.EarlyExit,
	})
}

// StopSession -> POST /activetables/stop
func (sc *SessionController) StopSession(c *gin.Context) {
	var req services.StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.Stop(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	msg := "Session billed"
	if result.Bill == nil {
		msg = "Table released"
	}
	utils.RespondJSON(c, http.StatusOK, msg, result)
}
