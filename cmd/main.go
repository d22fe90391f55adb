package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"malvinvet/internal/calllog"
	"malvinvet/internal/config"
	"malvinvet/internal/handlers"
	"malvinvet/internal/middleware"
	"malvinvet/internal/repository"
	"malvinvet/internal/service"
	"malvinvet/internal/worker"
	"malvinvet/pkg/database"
	"malvinvet/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	// Загрузка .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("=== Malvin Vet Backend Starting ===")

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключение к PostgreSQL
	db, err := database.Connect(database.Config(cfg.DB))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// Подключение к Redis
	redisClient, err := redis.Connect(redis.Config(cfg.Redis))
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Автомиграция моделей
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Журнал звонков
	callLog, err := calllog.NewFileWriter(cfg.CallLog.Dir)
	if err != nil {
		log.Fatal("Failed to init call log:", err)
	}

	// Инициализация репозиториев
	analysisRepo := repository.NewAnalysisRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	importLogRepo := repository.NewImportLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Инициализация сервисов
	analysisService := service.NewAnalysisService(analysisRepo, doctorRepo, callLog)
	archiveService := service.NewArchiveService(analysisRepo)
	doctorService := service.NewDoctorService(doctorRepo, analysisRepo)
	importService := service.NewImportService(analysisRepo, doctorService, importLogRepo)
	exportService := service.NewExportService(analysisRepo, cfg.Export.OutputDir)
	statsService := service.NewStatsService(analysisRepo, doctorRepo, cacheRepo)
	adminService := service.NewAdminService(analysisRepo, doctorRepo)

	// Стартовые врачи на пустой базе
	if err := doctorService.SeedDefaults(context.Background(), config.DefaultDoctors); err != nil {
		log.Fatal("Failed to seed default doctors:", err)
	}

	// Фоновое обновление кэша статистики
	scheduler := worker.NewScheduler()
	if cfg.Workers.StatsEnabled {
		scheduler.AddWorker(worker.NewStatsWorker(statsService, cfg.Workers.StatsInterval))
		log.Printf("Stats Worker enabled (interval: %v)", cfg.Workers.StatsInterval)
	}
	go scheduler.Start()
	defer scheduler.Stop()

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting (только для продакшена)
	if !cfg.App.Debug {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(limiter))
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Инициализация хендлеров
	analysisHandler := handlers.NewAnalysisHandler(analysisService, archiveService)
	doctorHandler := handlers.NewDoctorHandler(doctorService)
	importHandler := handlers.NewImportHandler(importService)
	exportHandler := handlers.NewExportHandler(exportService)
	statsHandler := handlers.NewStatsHandler(statsService)
	adminHandler := handlers.NewAdminHandler(adminService, callLog, cfg.App.ResetPassword, config.DefaultDoctors)

	// Группа API v1
	api := r.Group("/api/v1")

	// Анализы: списки и жизненный цикл
	api.GET("/analyses", analysisHandler.List)
	api.POST("/analyses", analysisHandler.Add)
	api.PUT("/analyses/:id", analysisHandler.Edit)
	api.DELETE("/analyses/:id", analysisHandler.Delete)
	api.POST("/analyses/:id/processed", analysisHandler.MarkProcessed)
	api.POST("/analyses/:id/archive", analysisHandler.ForceArchive)
	api.POST("/analyses/archive-recent", analysisHandler.ArchiveRecent)
	api.POST("/analyses/reset-statuses", analysisHandler.ResetStatuses)

	// Врачи
	api.GET("/doctors", doctorHandler.List)
	api.POST("/doctors", doctorHandler.Add)
	api.DELETE("/doctors/:id", doctorHandler.Delete)

	// Импорт и экспорт
	api.POST("/import", importHandler.Upload)
	api.GET("/import/history", importHandler.History)
	api.GET("/export", exportHandler.Export)

	// Статистика
	api.GET("/stats", statsHandler.Global)
	api.GET("/stats/doctors", statsHandler.ByDoctor)

	// Администрирование
	api.POST("/admin/reset-database", adminHandler.ResetDatabase)
	api.GET("/call-logs", adminHandler.CallLogs)

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"database": "connected",
				"redis":    "connected",
			},
		})
	})

	// Системные эндпоинты
	api.GET("/system/stats", func(c *gin.Context) {
		ctx := c.Request.Context()

		redisStats, _ := redis.GetStats(redisClient)
		analysesCount, _ := analysisRepo.Count(ctx)
		doctorsCount, _ := doctorRepo.Count(ctx)

		c.JSON(200, gin.H{
			"database": gin.H{
				"analyses": analysesCount,
				"doctors":  doctorsCount,
			},
			"redis": redisStats,
			"workers": gin.H{
				"stats_enabled": cfg.Workers.StatsEnabled,
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.App.Port)
		log.Printf("API available at http://localhost:%s/api/v1", cfg.App.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited properly")
}
