package controllers

import (
	"Lotero/middleware"
	"Lotero/services/game"
	"Lotero/services/sse"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupGamesRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	// Setup test environment
	gin.SetMode(gin.TestMode)
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)

	// Create controller with mocked dependencies
	gamesController := &GamesController{
		DB:     gormDB,
		Engine: game.New(gormDB, sse.NewBroadcaster(), nil),
	}

	// Setup router with a stub authenticated user
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, "user1")
	})
	router.POST("/games/:game_id/cards/:card_id", gamesController.PickCard)
	router.POST("/games/:game_id/start", gamesController.StartGame)

	return router, mock, func() { sqlDB.Close() }
}

func TestPickCardEndpoint(t *testing.T) {
	router, mock, cleanup := setupGamesRouter(t)
	defer cleanup()

	// Setup mock expectations
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "games" WHERE id = \$1 .* FOR UPDATE`).
		WithArgs("game1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("game1", "prepare"))
	mock.ExpectQuery(`SELECT \* FROM "cards" WHERE id = \$1 AND is_active = \$2`).
		WithArgs("C01", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow("C01", true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "game_cards" WHERE game_id = \$1 AND card_id = \$2`).
		WithArgs("game1", "C01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "game_cards" WHERE game_id = \$1 AND user_id = \$2`).
		WithArgs("game1", "user1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "game_cards"`).
		WithArgs("game1", "C01", "user1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Execute request
	req, _ := http.NewRequest("POST", "/games/game1/cards/C01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "game1", response["game_id"])
	assert.Equal(t, "C01", response["card_id"])
	assert.Equal(t, "user1", response["user_id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickCardEndpointConflict(t *testing.T) {
	router, mock, cleanup := setupGamesRouter(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "games" WHERE id = \$1 .* FOR UPDATE`).
		WithArgs("game1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("game1", "prepare"))
	mock.ExpectQuery(`SELECT \* FROM "cards" WHERE id = \$1 AND is_active = \$2`).
		WithArgs("C01", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow("C01", true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "game_cards" WHERE game_id = \$1 AND card_id = \$2`).
		WithArgs("game1", "C01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	req, _ := http.NewRequest("POST", "/games/game1/cards/C01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "CONFLICT", response["code"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGameEndpointNotFound(t *testing.T) {
	router, mock, cleanup := setupGamesRouter(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "games" WHERE id = \$1 .* FOR UPDATE`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectRollback()

	req, _ := http.NewRequest("POST", "/games/missing/start", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "NOT_FOUND", response["code"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
