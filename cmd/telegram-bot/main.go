package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meal-plan-assistant/internal/config"
	"meal-plan-assistant/internal/database"
	"meal-plan-assistant/internal/llm"
	"meal-plan-assistant/internal/message"
	"meal-plan-assistant/internal/metrics"
	"meal-plan-assistant/internal/planner"
	"meal-plan-assistant/internal/recipe"
	"meal-plan-assistant/internal/shopping"
	"meal-plan-assistant/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var textGen llm.TextGenerator
	if cfg.GroqAPIKey != "" {
		textGen = llm.NewGroqClient(cfg, llm.DefaultGroqModel, 0.3)
	} else {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer func() {
			if c, ok := geminiClient.(llm.Closer); ok {
				c.Close()
			}
		}()
		textGen = geminiClient
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db)
	shoppingRepo := shopping.NewRepository(db)
	sessionRepo := telegram.NewSessionRepository(db)
	metricsStore := metrics.NewStore(db)

	mealPlanner := planner.New(recipeRepo, planRepo, shoppingRepo,
		planner.WithScoringOracle(planner.NewLLMScorer(textGen, metricsStore)),
		planner.WithRankingOracle(planner.NewLLMRanker(textGen, metricsStore)),
		planner.WithModificationOracle(planner.NewLLMModifier(textGen, metricsStore)),
	)
	prefOracle := message.NewLLMPreferenceParser(textGen, metricsStore)

	bot, err := telegram.NewBot(cfg, mealPlanner, sessionRepo, prefOracle, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
