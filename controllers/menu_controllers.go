package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenus -> ?category= filters, ?available=true hides items that cannot be ordered
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	q := mc.DB.Order("category, name")
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if c.Query("available") == "true" {
		q = q.Where("available = ?", true)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		Name     string  `json:"name" binding:"required"`
		Category string  `json:"category"`
		Price    float64 `json:"price" binding:"required"`
		Stock    int     `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Price < 0 || req.Stock < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("price and stock must not be negative"))
		return
	}

	item := models.MenuItem{
		Name:      strings.TrimSpace(req.Name),
		Category:  req.Category,
		Price:     req.Price,
		Stock:     req.Stock,
		Available: true,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Menu item created: %s (%.2f)", item.Name, item.Price)
	utils.RespondJSON(c, http.StatusCreated, "Menu created successfully", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Name      *string  `json:"name"`
		Category  *string  `json:"category"`
		Price     *float64 `json:"price"`
		Stock     *int     `json:"stock"`
		Available *bool    `json:"available"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrMenuItemNotFound)
		return
	}

	updates := map[string]interface{}{}
	if body.Name != nil {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Category != nil {
		updates["category"] = *body.Category
	}
	if body.Price != nil {
		if *body.Price < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price must not be negative"))
			return
		}
		updates["price"] = *body.Price
	}
	if body.Stock != nil {
		updates["stock"] = max(*body.Stock, 0)
	}
	if body.Available != nil {
		updates["available"] = *body.Available
	}
	if len(updates) > 0 {
		if err := mc.DB.Model(&item).Updates(updates).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}
