package controllers

import (
	"Lotero/middleware"
	models "Lotero/models/postgres"
	"Lotero/services/game"
	"Lotero/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoomsController struct {
	DB     *gorm.DB
	Engine *game.Engine
}

// respondEngineError maps an engine failure onto the API status
// semantics, keeping the machine-readable code in the payload.
func respondEngineError(c *gin.Context, err error) {
	code := game.CodeOf(err)
	if code == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(game.HTTPStatus(err), gin.H{"error": err.Error(), "code": code})
}

// @Summary Creates a new room
// @Description Creates a lobby room with a fresh 6-digit join code
// @Tags rooms
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 201 {object} object{room_id=string,code=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms [post]
// @Security ApiKeyAuth
func (rc *RoomsController) CreateRoom(c *gin.Context) {
	name := c.PostForm("name")
	gameMode := c.PostForm("game_mode")
	var groupID *string
	if raw := c.PostForm("group_id"); strings.TrimSpace(raw) != "" {
		groupID = &raw
	}

	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
		return
	}

	room, err := rc.Engine.CreateRoom(middleware.UserID(c), name, groupID, gameMode)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room_id": room.ID, "code": room.Code})
}

// @Summary Lists the authenticated user's rooms
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {array} object{room_id=string,code=string,status=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/rooms [get]
// @Security ApiKeyAuth
func (rc *RoomsController) ListRooms(c *gin.Context) {
	var rooms []models.Room
	err := rc.DB.Where("creator_id = ?", middleware.UserID(c)).Find(&rooms).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]gin.H, len(rooms))
	for i, room := range rooms {
		list[i] = gin.H{
			"room_id":    room.ID,
			"name":       room.Name,
			"code":       room.Code,
			"status":     room.Status,
			"created_at": room.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Gives info of a room
// @Description Given a room id, it will return its information and players
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room wanted"
// @Success 200 {object} object{room_id=string,code=string,status=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/rooms/{room_id} [get]
// @Security ApiKeyAuth
func (rc *RoomsController) GetRoomInfo(c *gin.Context) {
	roomID := c.Param("room_id")

	room, err := utils.CheckRoomExists(rc.DB, roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	var players []models.RoomPlayer
	if err := rc.DB.Where("room_id = ?", roomID).Find(&players).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	roster := make([]gin.H, len(players))
	for i, p := range players {
		roster[i] = gin.H{"user_id": p.UserID, "joined_at": p.JoinedAt}
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":    room.ID,
		"name":       room.Name,
		"code":       room.Code,
		"status":     room.Status,
		"creator_id": room.CreatorID,
		"players":    roster,
		"created_at": room.CreatedAt,
	})
}

// @Summary Joins a room by its 6-digit code
// @Description Adds the user to the room roster. Joining twice is a no-op.
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param code path string true "6-digit join code"
// @Success 200 {object} object{room_id=string}
// @Failure 400 {object} object{error=string,code=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/rooms/join/{code} [post]
// @Security ApiKeyAuth
func (rc *RoomsController) JoinByCode(c *gin.Context) {
	code := c.Param("code")

	roomID, err := rc.Engine.JoinRoomByCode(code, middleware.UserID(c))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID})
}

// @Summary Creates a game from a room
// @Description Creates a PREPARE game, copies the room roster and locks the room
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Success 201 {object} object{game_id=string}
// @Failure 400 {object} object{error=string,code=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/rooms/{room_id}/game [post]
// @Security ApiKeyAuth
func (rc *RoomsController) CreateGameFromRoom(c *gin.Context) {
	roomID := c.Param("room_id")

	isMember, err := utils.IsPlayerInRoom(rc.DB, roomID, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a player in this room"})
		return
	}

	created, err := rc.Engine.CreateGame(roomID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"game_id": created.ID})
}
