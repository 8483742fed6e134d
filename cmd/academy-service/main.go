package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/config"
	httpAPI "github.com/iyhunko/academy-backend/internal/http"
	"github.com/iyhunko/academy-backend/internal/http/controller"
	"github.com/iyhunko/academy-backend/internal/logger"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/repository/mongo"
	"github.com/iyhunko/academy-backend/internal/repository/sql"
	"github.com/iyhunko/academy-backend/internal/service"
	sqspkg "github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, conf)
	handleErr("opening document store", err)
	defer closeStore()

	backend, err := newImageBackend(ctx, conf)
	handleErr("initializing image backend", err)

	listCache, err := cache.Connect(ctx, conf.Redis)
	handleErr("connecting to redis", err)
	defer func() { _ = listCache.Close() }()

	// Outbox publishing is optional; without a queue events stay pending in the store.
	var outboxWorker *service.OutboxWorker
	if conf.AWS.SQSQueueURL != "" {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		handleErr("loading AWS config", err)
		publisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
		outboxWorker = service.NewOutboxWorker(store.Events(), publisher, conf.Outbox.Interval)
		go outboxWorker.Start(ctx)
	} else {
		slog.Warn("SQS queue URL is not set, outbox events will not be published")
	}

	productImages := storage.NewImageStore(backend, storage.ProductPolicy(conf.Images.ProductMaxBytes))
	courseImages := storage.NewImageStore(backend, storage.CoursePolicy(conf.Images.CourseMaxBytes))

	productService := service.NewProductService(store, productImages, listCache)
	courseService := service.NewCourseService(store, courseImages, listCache)
	roboGeniusService := service.NewRoboGeniusService(store, courseImages, listCache)
	enrollmentService := service.NewEnrollmentService(store, listCache)
	reviewService := service.NewReviewService(store, listCache)

	router := httpAPI.InitRouter(conf, gin.New(), httpAPI.Controllers{
		General:    controller.New(),
		Products:   controller.NewProductController(productService),
		Reviews:    controller.NewReviewController(reviewService),
		Courses:    controller.NewCourseController(courseService),
		Enrollment: controller.NewEnrollmentController(enrollmentService),
		RoboGenius: controller.NewRoboGeniusController(roboGeniusService),
	})

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("err", err))
	}
	if outboxWorker != nil {
		outboxWorker.Stop()
	}
	cancel()
}

// openStore connects the configured document store and returns a function releasing it.
func openStore(ctx context.Context, conf *config.Config) (repository.Store, func(), error) {
	switch conf.DBDriver {
	case config.DriverPostgres:
		db, err := sql.StartDB(ctx, conf.Database, sql.DefaultMigrationsURL)
		if err != nil {
			return nil, nil, err
		}
		return sql.NewStore(db), func() { _ = db.Close() }, nil
	default:
		client, err := mongo.Connect(ctx, conf.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		store := mongo.NewStore(client, client.Database(conf.Mongo.Database), conf.Mongo.Transactions)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	}
}

func newImageBackend(ctx context.Context, conf *config.Config) (storage.Backend, error) {
	if conf.Images.Backend == config.ImageBackendMinio {
		return storage.ConnectMinio(ctx, conf.Images.Minio)
	}
	return storage.NewDiskBackend(conf.Images.UploadsDir)
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("fatal error", slog.String("while", msg), slog.Any("err", err))
		os.Exit(1)
	}
}
