package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrisense.app/plantcare/internal/api"
	"agrisense.app/plantcare/internal/config"
	"agrisense.app/plantcare/internal/core"
	"agrisense.app/plantcare/internal/store"
	"agrisense.app/plantcare/internal/weather"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize the shared database handle. One handle per process,
	// reused by every request, closed only at shutdown.
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Feature services
	weatherService := weather.NewService(config.AppConfig.OpenWeatherAPIKey)
	accountService := core.NewAccountService(dbStore)
	chatService := core.NewChatService(dbStore, llmService)
	detectionService := core.NewDetectionService(dbStore, llmService, weatherService,
		config.AppConfig.PlantIDAPIKey, config.AppConfig.HuggingFaceToken)
	advisoryService := core.NewAdvisoryService(llmService, config.AppConfig.CropDataPath)
	soilService := core.NewSoilAnalysisService(llmService)
	translateService := core.NewTranslateService(llmService)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(accountService, chatService, detectionService, advisoryService, soilService, translateService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
