package routing

import (
	"net/http"
	"os"
	"time"

	"silverrock/internal/handlers"
	"silverrock/internal/managers"
	"silverrock/internal/middleware"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr, storageMgr managers.StorageMgr) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router)
	// Setup routes
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, storageMgr)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(middleware.PrometheusMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:5173", "http://localhost:19000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
	})
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr, storageMgr managers.StorageMgr) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("PR_NUMBER")
		var pullRequest string

		if apiVersion == "" {
			apiVersion = "main:latest"
		} else {
			pullRequest = "https://github.com/silverrock-app/silverrock-server/pull/" + apiVersion
			apiVersion = "PR-" + apiVersion
		}
		metadata := &schemas.MetadataDTO{
			ApiVersion:  apiVersion,
			ApiName:     "Silverrock",
			PullRequest: pullRequest,
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the database
		if err := databaseMgr.GetPool().Ping(c.Request.Context()); err != nil {
			utils.LogMessageWithFieldsAndError(c, "error", "Database not responding", err)
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	// Set up metrics route
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokenStore := managers.NewTokenStore()
	userDirectory := managers.NewUserDirectory()
	credentialMgr := managers.NewCredentialManager()
	matchingMgr := managers.NewMatchingManager(databaseMgr, userDirectory, mailMgr)

	// Set up user routes
	userHdl := handlers.NewUserHandler(databaseMgr, jwtMgr, mailMgr, storageMgr, credentialMgr, tokenStore, userDirectory)
	authRoutes(router, userHdl, jwtMgr)
	userRoutes(router.Group("/users"), userHdl, jwtMgr)

	// Set up matching routes
	matchingRouter := router.Group("/matching")
	matchingRouter.Use(jwtMgr.JWTMiddleware())
	matchingHdl := handlers.NewMatchingHandler(matchingMgr)
	matchingRoutes(matchingRouter, matchingHdl)
}

func authRoutes(router *gin.Engine, userHdl handlers.UserHdl, jwtMgr managers.JWTMgr) {
	router.POST("/login", middleware.ValidateAndSanitizeStruct[schemas.LoginRequest](), userHdl.LoginUser)
	router.POST("/refresh", middleware.ValidateAndSanitizeStruct[schemas.RefreshTokenRequest](), userHdl.RefreshToken)
	// Logout has to work with expired access tokens, so only the raw token is extracted
	router.POST("/logout", jwtMgr.RawTokenMiddleware(), userHdl.LogoutUser)
}

func userRoutes(userRouter *gin.RouterGroup, userHdl handlers.UserHdl, jwtMgr managers.JWTMgr) {
	userRouter.POST("", middleware.ValidateAndSanitizeStruct[schemas.RegistrationRequest](), userHdl.RegisterUser)
	userRouter.GET("/nickname", userHdl.CheckNickname)
	// The following routes require the user to be authenticated
	userRouter.Use(jwtMgr.JWTMiddleware())
	userRouter.GET("/me", userHdl.GetMe)
	userRouter.PATCH("/me", middleware.ValidateAndSanitizeStruct[schemas.ChangeUserInfoRequest](), userHdl.ChangeUserInfo)
	userRouter.PUT("/me/profile", userHdl.ChangeProfileImage)
	userRouter.DELETE("/me/profile", userHdl.RemoveProfileImage)
	userRouter.GET("/nearby", userHdl.GetNearbyUsers)
}

func matchingRoutes(matchingRouter *gin.RouterGroup, matchingHdl handlers.MatchingHdl) {
	matchingRouter.POST("", middleware.ValidateAndSanitizeStruct[schemas.MatchingRequestRequest](), matchingHdl.SubmitMatchingRequest)
	matchingRouter.GET("/received", matchingHdl.GetReceivedRequests)
	matchingRouter.GET("/friends", matchingHdl.GetFriends)
	matchingRouter.PATCH("/:"+utils.MatchingIdKey+"/accept", matchingHdl.AcceptMatchingRequest)
	matchingRouter.DELETE("/:"+utils.MatchingIdKey, matchingHdl.RejectMatchingRequest)
}
