package controllers

import (
	"Lotero/middleware"
	"Lotero/services/game"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GamesController struct {
	DB     *gorm.DB
	Engine *game.Engine
}

// @Summary Gets cards with availability status for a game
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Success 200 {array} game.CardAvailability
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/cards [get]
// @Security ApiKeyAuth
func (gc *GamesController) GetCards(c *gin.Context) {
	cards, err := gc.Engine.CardsWithAvailability(c.Param("game_id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// @Summary Picks a card for the authenticated user
// @Description Claims a free card while the game is in PREPARE status
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Param card_id path string true "Id of the card"
// @Success 201 {object} object{game_id=string,card_id=string,user_id=string}
// @Failure 400 {object} object{error=string,code=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/cards/{card_id} [post]
// @Security ApiKeyAuth
func (gc *GamesController) PickCard(c *gin.Context) {
	gameCard, err := gc.Engine.PickCard(c.Param("game_id"), middleware.UserID(c), c.Param("card_id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"game_id": gameCard.GameID,
		"card_id": gameCard.CardID,
		"user_id": gameCard.UserID,
	})
}

// @Summary Releases a previously picked card
// @Description Only the owning user can release, and only while the game is in PREPARE status
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Param card_id path string true "Id of the card"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string,code=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/cards/{card_id} [delete]
// @Security ApiKeyAuth
func (gc *GamesController) ReleaseCard(c *gin.Context) {
	err := gc.Engine.ReleaseCard(c.Param("game_id"), middleware.UserID(c), c.Param("card_id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "card released"})
}

// @Summary Starts the game
// @Description Commits the shuffled draw order and moves the game to STARTED
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Success 200 {object} game.StartResult
// @Failure 400 {object} object{error=string,code=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/start [post]
// @Security ApiKeyAuth
func (gc *GamesController) StartGame(c *gin.Context) {
	result, err := gc.Engine.StartGame(c.Param("game_id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Calls the next number
// @Description Reveals the next number from the committed draw order
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Success 200 {object} game.CallResult
// @Failure 400 {object} object{error=string,code=string}
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/call-next [post]
// @Security ApiKeyAuth
func (gc *GamesController) CallNextNumber(c *gin.Context) {
	result, err := gc.Engine.CallNextNumber(c.Param("game_id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
