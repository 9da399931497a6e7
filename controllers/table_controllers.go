package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB  *gorm.DB
	Hub services.Broadcaster
}

func NewTableController(db *gorm.DB, hub services.Broadcaster) *TableController {
	return &TableController{DB: db, Hub: hub}
}

// GetAllGames -> games in display order
func (tc *TableController) GetAllGames(c *gin.Context) {
	var games []models.Game
	if err := tc.DB.Order("sort_order, id").Find(&games).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of games", games)
}

func (tc *TableController) CreateGame(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	game := models.Game{Name: strings.TrimSpace(req.Name), SortOrder: req.SortOrder}
	if err := tc.DB.Create(&game).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("New game created: %s", game.Name)
	utils.RespondJSON(c, http.StatusCreated, "Game created successfully", game)
}

// GetAllTables -> every table, optionally for one game (?game_id=)
func (tc *TableController) GetAllTables(c *gin.Context) {
	q := tc.DB.Order("game_id, id")
	if gameID := queryUint(c, "game_id"); gameID != 0 {
		q = q.Where("game_id = ?", gameID)
	}
	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		GameID         uint     `json:"game_id" binding:"required"`
		Name           string   `json:"name" binding:"required"`
		PricePerMinute *float64 `json:"price_per_minute"`
		FrameCharge    *float64 `json:"frame_charge"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var game models.Game
	if err := tc.DB.First(&game, req.GameID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("game not found"))
		return
	}

	table := models.Table{
		GameID: game.ID,
		Name:   strings.TrimSpace(req.Name),
		Status: models.TableAvailable,
	}
	if req.PricePerMinute != nil && *req.PricePerMinute > 0 {
		table.PricePerMinute = *req.PricePerMinute
	}
	if req.FrameCharge != nil && *req.FrameCharge > 0 {
		table.FrameCharge = *req.FrameCharge
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tc.Hub.Broadcast(live.EventTableUpdate, table)
	utils.InfoLogger.Printf("New table created: %s (game=%s)", table.Name, game.Name)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTable -> rates, name, and the maintenance flag. Occupancy is owned by sessions.
func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Name           *string  `json:"name"`
		Status         *string  `json:"status"`
		PricePerMinute *float64 `json:"price_per_minute"`
		FrameCharge    *float64 `json:"frame_charge"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrTableNotFound)
		return
	}

	updates := map[string]interface{}{}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.PricePerMinute != nil {
		updates["price_per_minute"] = max(*body.PricePerMinute, 0)
	}
	if body.FrameCharge != nil {
		updates["frame_charge"] = max(*body.FrameCharge, 0)
	}
	if body.Status != nil && *body.Status != table.Status {
		switch *body.Status {
		case models.TableMaintenance, models.TableAvailable:
			if table.Occupied() {
				utils.RespondError(c, http.StatusConflict, errors.New("table has a running session, stop it first"))
				return
			}
			updates["status"] = *body.Status
		default:
			utils.RespondError(c, http.StatusBadRequest, errors.New("status must be available or maintenance"))
			return
		}
	}

	if len(updates) > 0 {
		if err := tc.DB.Model(&table).Updates(updates).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		tc.Hub.Broadcast(live.EventTableUpdate, table)
		utils.InfoLogger.Printf("Table %d updated: %v", table.ID, updates)
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}
