package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cwj5/spendlens/internal/config"
	"github.com/cwj5/spendlens/internal/dashboard"
	"github.com/cwj5/spendlens/internal/logger"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	log := logger.New("spendlens")

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	service := dashboard.NewService(settings, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(log))

	api := router.Group("/api")
	{
		api.POST("/upload", service.HandleUpload)
		api.GET("/transactions", service.HandleTransactions)
		api.GET("/summary", service.HandleSummary)
		api.GET("/categories", service.HandleCategories)
		api.GET("/daily", service.HandleDailyTotals)
		api.GET("/merchants", service.HandleMerchants)
		api.GET("/diagnostics", service.HandleDiagnostics)
		api.GET("/settings", service.HandleGetSettings)
		api.PUT("/settings", service.HandleUpdateSettings)
	}

	port := settings.GetVariableValue("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("starting server")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
