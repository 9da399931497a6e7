package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

type QueueController struct {
	Queue *services.QueueService
}

func NewQueueController(queue *services.QueueService) *QueueController {
	return &QueueController{Queue: queue}
}

// GetQueue -> waiting entries, ?game_id= filters
func (qc *QueueController) GetQueue(c *gin.Context) {
	entries, err := qc.Queue.List(c.Request.Context(), queryUint(c, "game_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Queue", entries)
}

func (qc *QueueController) AddToQueue(c *gin.Context) {
	var req services.AddQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := qc.Queue.Add(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Added to queue", entry)
}

func (qc *QueueController) CancelQueue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := qc.Queue.Cancel(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Queue entry cancelled", nil)
}
