package controllers

import (
	"Lotero/middleware"
	models "Lotero/models/postgres"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Creates a new group
// @Description Creates a roster group owned by the authenticated user
// @Tags groups
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 201 {object} object{group_id=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/groups [post]
// @Security ApiKeyAuth
func CreateGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.PostForm("name")
		description := c.PostForm("description")

		if strings.TrimSpace(name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Group name is required"})
			return
		}

		group := models.Group{
			Name:        name,
			Description: description,
			CreatorID:   middleware.UserID(c),
		}
		if err := db.Create(&group).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating group"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"group_id": group.ID})
	}
}

// @Summary Lists the authenticated user's groups
// @Tags groups
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {array} object{group_id=string,name=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/groups [get]
// @Security ApiKeyAuth
func ListGroups(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var groups []models.Group
		err := db.Where("creator_id = ?", middleware.UserID(c)).Find(&groups).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		list := make([]gin.H, len(groups))
		for i, group := range groups {
			list[i] = gin.H{
				"group_id":    group.ID,
				"name":        group.Name,
				"description": group.Description,
				"created_at":  group.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary Joins a group
// @Description Adds the authenticated user to the group. Joining twice is a no-op.
// @Tags groups
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param group_id path string true "Id of the group to join"
// @Success 200 {object} object{group_id=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/groups/{group_id}/join [post]
// @Security ApiKeyAuth
func JoinGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Param("group_id")
		userID := middleware.UserID(c)

		var group models.Group
		if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}

		var member int64
		err := db.Model(&models.GroupPlayer{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&member).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if member == 0 {
			player := models.GroupPlayer{
				GroupID:  groupID,
				UserID:   userID,
				JoinedAt: time.Now(),
			}
			if err := db.Create(&player).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error joining group"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"group_id": groupID})
	}
}

// @Summary Gives info of a group
// @Tags groups
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param group_id path string true "Id of the group wanted"
// @Success 200 {object} object{group_id=string,name=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/groups/{group_id} [get]
// @Security ApiKeyAuth
func GetGroupInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Param("group_id")

		var group models.Group
		result := db.Where("id = ?", groupID).First(&group)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			}
			return
		}

		var memberCount int64
		db.Model(&models.GroupPlayer{}).Where("group_id = ?", groupID).Count(&memberCount)

		c.JSON(http.StatusOK, gin.H{
			"group_id":     group.ID,
			"name":         group.Name,
			"description":  group.Description,
			"creator_id":   group.CreatorID,
			"member_count": memberCount,
			"created_at":   group.CreatedAt,
		})
	}
}
