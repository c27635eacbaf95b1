package controllers

import (
	"Lotero/middleware"
	"Lotero/services/game"
	"Lotero/services/sse"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupStreamRouter(t *testing.T) (*gin.Engine, *sse.Broadcaster, sqlmock.Sqlmock, func()) {
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

	broadcaster := sse.NewBroadcaster()
	streamController := &StreamController{
		Engine:      game.New(gormDB, broadcaster, nil),
		Broadcaster: broadcaster,
	}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, "user1")
	})
	router.GET("/games/:game_id/stream", streamController.Stream)
	router.GET("/games/:game_id/viewers", streamController.Viewers)

	return router, broadcaster, mock, func() { sqlDB.Close() }
}

type discardConn struct{}

func (discardConn) Write(p []byte) (int, error) { return len(p), nil }
func (discardConn) Flush()                      {}

func expectSnapshotQueries(mock sqlmock.Sqlmock, gameID string) {
	mock.ExpectQuery(`SELECT \* FROM "games" WHERE id = \$1`).
		WithArgs(gameID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(gameID, "started"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "game_called_numbers" WHERE game_id = \$1`).
		WithArgs(gameID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "game_players" WHERE game_id = \$1 ORDER BY joined_at ASC`).
		WithArgs(gameID).
		WillReturnRows(sqlmock.NewRows([]string{"game_id", "user_id"}).
			AddRow(gameID, "user1"))
	mock.ExpectQuery(`SELECT \* FROM "game_cards" WHERE game_id = \$1`).
		WithArgs(gameID).
		WillReturnRows(sqlmock.NewRows([]string{"game_id", "card_id", "user_id"}).
			AddRow(gameID, "C01", "user1"))
}

func TestStreamSendsSnapshotInOrder(t *testing.T) {
	router, _, mock, cleanup := setupStreamRouter(t)
	defer cleanup()

	expectSnapshotQueries(mock, "game1")

	// A pre-cancelled context makes the handler return right after the
	// snapshot instead of blocking on the long-lived stream.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/games/game1/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	connected := strings.Index(body, `event: game_state`)
	state := strings.Index(body, `"calledCount":3`)
	players := strings.Index(body, "event: players")
	picked := strings.Index(body, "event: picked_cards")

	assert.GreaterOrEqual(t, connected, 0)
	assert.Greater(t, state, connected)
	assert.Greater(t, players, state)
	assert.Greater(t, picked, players)
	assert.Contains(t, body, `"C01":"user1"`)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamUnknownGameReturns404(t *testing.T) {
	router, _, mock, cleanup := setupStreamRouter(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "games" WHERE id = \$1`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	req := httptest.NewRequest("GET", "/games/missing/stream", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewersReportsLocalCount(t *testing.T) {
	router, broadcaster, _, cleanup := setupStreamRouter(t)
	defer cleanup()

	broadcaster.Subscribe("game1", "user1", discardConn{})
	broadcaster.Subscribe("game1", "user2", discardConn{})
	broadcaster.Subscribe("game2", "user3", discardConn{})

	req := httptest.NewRequest("GET", "/games/game1/viewers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"game_id":"game1"`)
	assert.Contains(t, w.Body.String(), `"local_viewers":2`)
	// Without Redis the cross-instance total is not reported
	assert.NotContains(t, w.Body.String(), "total_viewers")
}
