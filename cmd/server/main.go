package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/kam-assistant-api/internal/config"
	"github.com/user/kam-assistant-api/internal/handlers"
	"github.com/user/kam-assistant-api/internal/middleware"
	"github.com/user/kam-assistant-api/internal/repository"
	"github.com/user/kam-assistant-api/internal/services/ai"
	"github.com/user/kam-assistant-api/internal/services/ingest"
	"github.com/user/kam-assistant-api/internal/services/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к YAML-конфигурации")
	flag.Parse()

	// Загрузка конфигурации
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключение к БД и миграция схемы
	db, err := repository.NewDB(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			log.Printf("[DB] Ошибка закрытия БД: %v", err)
		}
	}()

	repo := repository.NewRepository(db)

	// Инициализация сервисов
	ingestService := ingest.NewService(repo)
	reportService := report.NewService(repo)
	aiClient := ai.NewClient(cfg.Analysis)
	aiService := ai.NewService(repo, aiClient, cfg.Analysis.RateLimitPerHour)

	// Инициализация HTTP-сервера
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	h := handlers.NewHandler(repo, ingestService, reportService, time.Now)
	aiHandler := handlers.NewAIHandler(aiService, time.Now)
	handlers.RegisterRoutes(router, h, aiHandler)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Анализ ждёт внешний API до 60 секунд
		WriteTimeout: ai.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Сервер запущен на порту %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-shutdownCh
	log.Println("Остановка сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}
