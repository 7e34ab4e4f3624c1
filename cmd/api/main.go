package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"devfolio/portfolio-api/internal/config"
	"devfolio/portfolio-api/internal/handlers"
	"devfolio/portfolio-api/internal/logger"
	"devfolio/portfolio-api/internal/models"
	"devfolio/portfolio-api/internal/repositories"
	"devfolio/portfolio-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New()
	log.Info("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	log.Info("✅ Database connected successfully")

	// Initialize repositories
	docRepo := repositories.NewDocumentRepository(db)

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize, log)
	if err := storageService.EnsureUploadDirs(); err != nil {
		log.Fatalf("❌ Failed to create upload directories: %v", err)
	}

	schemaLoader, err := services.NewSchemaLoader(cfg.Schema.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load profile schema: %v", err)
	}

	pdfParser := services.NewPDFParserService()

	modelClient, err := services.NewGeminiClient(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini client: %v", err)
	}

	extractorService := services.NewExtractorService(
		modelClient,
		pdfParser,
		schemaLoader,
		cfg.Gemini.DefaultModel,
		log,
	)
	log.Info("✅ Services initialized successfully")

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, log)
	filesHandler := handlers.NewFilesHandler(docRepo, storageService, log)
	parseHandler := handlers.NewParseHandler(extractorService, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Portfolio CV API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(models.HealthResponse{
			Status:  "OK",
			Message: "Portfolio CV API is running",
		})
	})

	api := app.Group("/api")
	api.Post("/upload/cv", uploadHandler.HandleUploadCV)
	api.Post("/upload/resume", uploadHandler.HandleUploadCV)
	api.Post("/upload/photo", uploadHandler.HandleUploadPhoto)
	api.Get("/files/:type/:filename", filesHandler.HandleGetFile)
	api.Get("/files/:type", filesHandler.HandleListFiles)
	api.Post("/copy-files", filesHandler.HandleCopyFiles)
	api.Post("/parse-resume-llm", parseHandler.HandleParseResume)
	api.Post("/parse-pdf-llm", parseHandler.HandleParsePDF)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Errorf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Infof("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
