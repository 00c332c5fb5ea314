package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type CategoryController struct {
	DB *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{DB: db}
}

func (cc *CategoryController) AddCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("fill in all fields"))
		return
	}

	var existing models.Category
	if err := cc.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("la catégorie existe déjà"))
		return
	}

	category := models.Category{Name: body.Name}
	if err := cc.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (cc *CategoryController) GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := cc.DB.Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

func (cc *CategoryController) GetCategoryByID(c *gin.Context) {
	var category models.Category
	if err := cc.DB.First(&category, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("category not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category detail", category)
}

func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := cc.DB.First(&category, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("category not found"))
		return
	}

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category.Name = body.Name
	if err := cc.DB.Save(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	res := cc.DB.Delete(&models.Category{}, c.Param("id"))
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("category not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"id": c.Param("id")})
}
