package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/almanara-academy/courses-api/api/swagger"
	"github.com/almanara-academy/courses-api/internal/handler"
	"github.com/almanara-academy/courses-api/internal/middleware"
	"github.com/almanara-academy/courses-api/internal/repository"
	"github.com/almanara-academy/courses-api/internal/service"
	"github.com/almanara-academy/courses-api/pkg/config"
	"github.com/almanara-academy/courses-api/pkg/database"
	"github.com/almanara-academy/courses-api/pkg/logger"
	corsmiddleware "github.com/almanara-academy/courses-api/pkg/middleware/cors"
	reqidmiddleware "github.com/almanara-academy/courses-api/pkg/middleware/requestid"
	"github.com/almanara-academy/courses-api/pkg/storage"
)

// @title Almanara Courses API
// @version 1.0.0
// @description Bilingual course catalog and enrollment API with tiered persistence fallback
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	// The pool is lazy on purpose: a primary that is down at boot must not
	// keep the fallback tiers from serving.
	mysqlDB, err := database.NewMySQL(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("mysql pool init failed", "error", err)
	}
	if err := database.Ping(mysqlDB); err != nil {
		logr.Sugar().Warnw("primary database unreachable at boot, fallback tiers will serve", "error", err)
	}

	sqliteDB, err := database.NewSQLite(cfg.Fallback.SQLitePath)
	if err != nil {
		logr.Sugar().Warnw("sqlite tier unavailable, enrollments fall back to flat file", "error", err)
		sqliteDB = nil
	}

	probe := database.NewSchemaProbe(mysqlDB, cfg.Database.Name, cfg.Database.AutoAddColumns, logr)
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(mysqlDB, probe, cfg.Fallback.DataDir, logr, metrics)
	categoryRepo := repository.NewCategoryRepository(mysqlDB, cfg.Fallback.DataDir, logr, metrics)
	enrollmentRepo := repository.NewEnrollmentRepository(mysqlDB, sqliteDB, cfg.Fallback.DataDir, logr, metrics)
	studentRepo := repository.NewStudentRepository(mysqlDB, logr)

	receipts, err := storage.NewReceiptStore(cfg.Uploads.Dir, cfg.Uploads.AllowedExtensions)
	if err != nil {
		logr.Sugar().Fatalw("receipt storage init failed", "error", err)
	}

	courseSvc := service.NewCourseService(courseRepo, categoryRepo, enrollmentRepo, nil, logr)
	categorySvc := service.NewCategoryService(categoryRepo, courseRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, receipts, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	statsSvc := service.NewStatsService(courseRepo, categoryRepo, enrollmentRepo, studentRepo, logr)

	handlers := handler.Handlers{
		Courses:     handler.NewCourseHandler(courseSvc),
		Categories:  handler.NewCategoryHandler(categorySvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Stats:       handler.NewStatsHandler(statsSvc),
		Metrics:     handler.NewMetricsHandler(metrics),
		Ready:       handler.Ready(func() error { return database.Ping(mysqlDB) }),
	}

	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(courseRepo, enrollmentRepo, studentRepo, exportStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			Workers:   cfg.Exports.WorkerConcurrency,
		}, logr)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
		handlers.Exports = handler.NewExportHandler(exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
