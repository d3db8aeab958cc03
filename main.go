package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lifegoals/quest-api/db"
	"github.com/lifegoals/quest-api/email"
	"github.com/lifegoals/quest-api/game"
	"github.com/lifegoals/quest-api/handlers"
	"github.com/lifegoals/quest-api/jobs"
	"github.com/lifegoals/quest-api/leads"
	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

// resultRecorder archives finished assessments. Failures are logged, not
// surfaced: losing an archive row must never break the game flow.
type resultRecorder struct {
	db *db.DB
}

func (r *resultRecorder) RecordResult(snap *models.Snapshot) {
	if _, err := r.db.SaveResult(snap); err != nil {
		utils.LogError("Failed to archive game result for session %.8s: %v", snap.Token, err)
	}
}

// cueLogger is the server-side stand-in for the browser's sound hook.
type cueLogger struct{}

func (cueLogger) Notify(token string, cue game.Cue) {
	utils.LogDebug("Session %.8s cue: %s", token, cue)
}

func main() {
	// Set up logging with timestamps
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	utils.LogStartup("Life Goals Quest API starting...")

	if err := godotenv.Load(); err != nil {
		utils.LogStartup("No .env file found, using environment as-is")
	}

	port := utils.GetEnvOrDefault("PORT", "8080")
	utils.LogStartup("Using port: %s", port)

	dbPath := utils.GetEnvOrDefault("DB_PATH", "./lifegoals.db")
	utils.LogStartup("Using database path: %s", dbPath)

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize database: %v", err)
	}

	// Game configuration
	gameCfg := game.Config{
		QuestionTimeout: time.Duration(utils.GetEnvInt("QUESTION_SECONDS", 30)) * time.Second,
		SessionTimeout:  time.Duration(utils.GetEnvInt("SESSION_SECONDS", 300)) * time.Second,
		LivesEnabled:    utils.GetEnvBool("LIVES_ENABLED", true),
	}
	utils.LogStartup("Game config: question=%v session=%v lives=%t",
		gameCfg.QuestionTimeout, gameCfg.SessionTimeout, gameCfg.LivesEnabled)

	sessionTTL := time.Duration(utils.GetEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour
	store := game.NewSessionStore(gameCfg, sessionTTL, cueLogger{}, &resultRecorder{db: database})

	// Lead submission client
	leadClient := leads.NewClient(leads.Config{
		URL:          utils.GetEnvOrDefault("LMS_URL", "https://webpartner.bajajallianz.com/EurekaWSNew/service/pushData"),
		DataSource:   utils.GetEnvOrDefault("LMS_DATA_SOURCE", "WS_BUY_Game1"),
		ProdID:       utils.GetEnvOrDefault("LMS_PROD_ID", "345"),
		CurrPagePath: utils.GetEnvOrDefault("LMS_PAGE_PATH", "https://www.bajajlifeinsurance.com/etouch/"),
	})

	emailService := email.NewService(email.LoadConfig())

	// Job queue is optional; without Redis the booking path delivers inline
	var jobManager *jobs.JobManager
	redisURL := os.Getenv("REDIS_URL")
	if redisURL != "" {
		utils.LogStartup("Job queue enabled (redis: %s)", redisURL)
		jobManager = jobs.NewJobManager(redisURL)
		jobManager.RegisterHandlers(leadClient, database, emailService)
		go func() {
			if err := jobManager.Start(); err != nil {
				utils.LogError("Job queue stopped: %v", err)
			}
		}()
	} else {
		utils.LogStartup("REDIS_URL not set, job queue disabled")
	}

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		utils.LogShutdown("Received shutdown signal")
		if jobManager != nil {
			jobManager.Stop()
		}
		if err := database.Close(); err != nil {
			utils.LogError("Error closing database: %v", err)
		} else {
			utils.LogShutdown("Database connection closed successfully")
		}
		os.Exit(0)
	}()

	// Setup API routes
	utils.LogStartup("Setting up API routes...")
	router := handlers.NewRouter(handlers.Options{
		Store:        store,
		DB:           database,
		LeadClient:   leadClient,
		JobManager:   jobManager,
		EmailService: emailService,
		SupportPhone: utils.GetEnvOrDefault("SUPPORT_PHONE", "+911800209999"),
	})

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.LogStartup("Starting HTTP server on port %s...", port)
	utils.LogStartup("Server ready to accept connections at http://localhost:%s", port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[FATAL] Server failed to start: %v", err)
	}
}
