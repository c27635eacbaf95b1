package routes

import (
	"Lotero/controllers"
	"Lotero/middleware"
	"Lotero/services/game"
	"Lotero/services/redis"
	"Lotero/services/sse"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient) {
	// One broadcaster and one engine per process, shared by every
	// handler so events reach every subscribed viewer.
	broadcaster := sse.NewBroadcaster()
	engine := game.New(db, broadcaster, redisClient)

	roomsController := &controllers.RoomsController{DB: db, Engine: engine}
	gamesController := &controllers.GamesController{Engine: engine}
	streamController := &controllers.StreamController{
		Engine:      engine,
		Broadcaster: broadcaster,
		RedisClient: redisClient,
	}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		groups := authentication.Group("/groups")
		{
			groups.POST("", controllers.CreateGroup(db))
			groups.GET("", controllers.ListGroups(db))
			groups.GET("/:group_id", controllers.GetGroupInfo(db))
			groups.POST("/:group_id/join", controllers.JoinGroup(db))
		}

		rooms := authentication.Group("/rooms")
		{
			rooms.POST("", roomsController.CreateRoom)
			rooms.GET("", roomsController.ListRooms)
			rooms.GET("/:room_id", roomsController.GetRoomInfo)
			rooms.POST("/join/:code", roomsController.JoinByCode)
			rooms.POST("/:room_id/game", roomsController.CreateGameFromRoom)
		}

		games := authentication.Group("/games")
		{
			games.GET("/:game_id/cards", gamesController.GetCards)
			games.POST("/:game_id/cards/:card_id", gamesController.PickCard)
			games.DELETE("/:game_id/cards/:card_id", gamesController.ReleaseCard)
			games.POST("/:game_id/start", gamesController.StartGame)
			games.POST("/:game_id/call-next", gamesController.CallNextNumber)
			games.GET("/:game_id/stream", streamController.Stream)
			games.GET("/:game_id/viewers", streamController.Viewers)
		}
	}
}
