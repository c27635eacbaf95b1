package controllers

import (
	"Lotero/middleware"
	"Lotero/services/game"
	"Lotero/services/redis"
	"Lotero/services/sse"
	"Lotero/utils/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

type StreamController struct {
	Engine      *game.Engine
	Broadcaster *sse.Broadcaster
	RedisClient *redis.RedisClient
}

// @Summary Subscribes to a game's live event stream
// @Description Long-lived SSE stream. Sends game_state, players and picked_cards in that order, then incremental events.
// @Tags games
// @Produce text/event-stream
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} object{error=string,code=string}
// @Router /auth/games/{game_id}/stream [get]
// @Security ApiKeyAuth
func (sc *StreamController) Stream(c *gin.Context) {
	gameID := c.Param("game_id")
	userID := middleware.UserID(c)

	// Snapshot is built synchronously before registering, so the game
	// must exist. The connection is closed otherwise.
	snapshot, err := sc.Engine.Snapshot(gameID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Writer.WriteHeader(http.StatusOK)

	viewer := sc.Broadcaster.Subscribe(gameID, userID, c.Writer)
	sc.trackViewer(gameID, +1)

	// Initial snapshot, fixed order: status before roster, roster
	// before claims.
	sc.Broadcaster.SendTo(gameID, userID, sse.Event{Type: sse.EventGameState, Data: snapshot.State})
	sc.Broadcaster.SendTo(gameID, userID, sse.Event{Type: sse.EventPlayers, Data: snapshot.Players})
	sc.Broadcaster.SendTo(gameID, userID, sse.Event{Type: sse.EventPickedCards, Data: snapshot.PickedCards})

	<-c.Request.Context().Done()

	sc.Broadcaster.Unsubscribe(gameID, viewer)
	sc.trackViewer(gameID, -1)
}

// @Summary Number of live viewers of a game
// @Description Local count comes from this instance's registry, the total from the shared gauge.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Id of the game"
// @Success 200 {object} object{game_id=string,local_viewers=int,total_viewers=int}
// @Router /auth/games/{game_id}/viewers [get]
// @Security ApiKeyAuth
func (sc *StreamController) Viewers(c *gin.Context) {
	gameID := c.Param("game_id")

	response := gin.H{
		"game_id":       gameID,
		"local_viewers": sc.Broadcaster.Count(gameID),
	}
	if sc.RedisClient != nil {
		total, err := sc.RedisClient.GetViewers(gameID)
		if err != nil {
			logger.Errorf("Failed to read viewer gauge for game %s: %v", gameID, err)
		} else {
			response["total_viewers"] = total
		}
	}
	c.JSON(http.StatusOK, response)
}

// trackViewer keeps the cross-instance viewer gauge, diagnostics only.
func (sc *StreamController) trackViewer(gameID string, delta int) {
	if sc.RedisClient == nil {
		return
	}
	var err error
	if delta > 0 {
		err = sc.RedisClient.IncrViewers(gameID)
	} else {
		err = sc.RedisClient.DecrViewers(gameID)
	}
	if err != nil {
		logger.Errorf("Failed to update viewer gauge for game %s: %v", gameID, err)
	}
}
