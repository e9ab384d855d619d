package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mauv0809/steady-garbanzo/internal/backtest"
	"github.com/mauv0809/steady-garbanzo/internal/db"
	"github.com/mauv0809/steady-garbanzo/internal/handlers"
	"github.com/mauv0809/steady-garbanzo/internal/ingest"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
	"github.com/mauv0809/steady-garbanzo/internal/snapshot"
)

func main() {
	// Load .env file if it exists (local dev)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	if err := db.RunMigrations(databaseURL); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}
	log.Println("Migrations completed")

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Setup Echo
	e := echo.New()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.Printf("%d %s", v.Status, v.URI)
			} else {
				log.Printf("%d %s - %v", v.Status, v.URI, v.Error)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	repo := db.NewRepository(pool)
	provider := snapshot.NewProvider(repo)
	screenEngine := screener.NewEngine()
	backtestEngine := backtest.NewEngine(screenEngine, repo)

	h := handlers.New()
	screenHandler := handlers.NewScreenHandler(repo, provider, screenEngine)
	stockHandler := handlers.NewStockHandler(repo, provider)
	backtestHandler := handlers.NewBacktestHandler(repo, provider, backtestEngine)

	// Routes
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/screens", screenHandler.ListScreens)
	api.POST("/screens/run", screenHandler.RunScreen)
	api.POST("/screens/custom", screenHandler.CreateCustomScreen)
	api.GET("/screens/custom/:name", screenHandler.GetCustomScreen)
	api.PUT("/screens/custom/:name", screenHandler.UpdateCustomScreen)
	api.DELETE("/screens/custom/:name", screenHandler.DeleteCustomScreen)

	api.GET("/stocks", stockHandler.ListStocks)
	api.GET("/stocks/:ticker", stockHandler.GetStock)
	api.GET("/sectors", stockHandler.GetSectors)

	api.POST("/backtests", backtestHandler.RunBacktest)
	api.GET("/backtests", backtestHandler.History)
	api.GET("/backtests/compare", backtestHandler.Compare)

	// Admin routes for data ingestion (requires NASDAQ_API_KEY)
	if apiKey := os.Getenv("NASDAQ_API_KEY"); apiKey != "" {
		ingestClient := ingest.NewClient(apiKey)
		ingestHandler := handlers.NewIngestHandler(ingestClient, repo)

		admin := e.Group("/admin")
		admin.GET("/ingest/status", ingestHandler.IngestStatus)
		admin.POST("/ingest/tickers", ingestHandler.IngestTickers)
		admin.POST("/ingest/fundamentals", ingestHandler.IngestFundamentals)
		admin.POST("/ingest/daily", ingestHandler.IngestDaily)
		log.Println("Ingestion endpoints registered")
	} else {
		log.Println("Warning: NASDAQ_API_KEY not set, ingestion endpoints disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
