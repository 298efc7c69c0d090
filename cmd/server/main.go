package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/boothlabs/igpublisher/configs"
	"github.com/boothlabs/igpublisher/internal/api/handlers"
	"github.com/boothlabs/igpublisher/internal/api/middleware"
	job "github.com/boothlabs/igpublisher/internal/jobs"
	"github.com/boothlabs/igpublisher/internal/queue"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

// sweepLockTTL bounds how long a stuck sweep task blocks the next one.
const sweepLockTTL = 15 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    10 * 1024 * 1024, // 10 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("unhandled request error", "path", c.Path(), "error", err)
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	credentialsRepo := repository.NewCredentialsRepository(db)

	instagramService := service.NewInstagramService(*cfg, nil)
	credentialsService := service.NewCredentialsService(*cfg, credentialsRepo)
	publishService := service.NewPublishService(instagramService, scheduledPostRepo)

	var r2Service service.R2Service
	if cfg.R2.BucketName != "" {
		r2Service, err = service.NewR2Service(*cfg)
		if err != nil {
			log.Fatalf("Failed to configure R2: %v", err)
		}
	} else {
		log.Println("Warning: R2 is not configured, image uploads are disabled")
	}
	postService := service.NewPostService(scheduledPostRepo, r2Service)

	publishJob := job.NewPublishScheduledJob(scheduledPostRepo, credentialsService, publishService)
	refreshTokenJob := job.NewTokenRefreshJob(credentialsRepo, instagramService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	cronHandler := handlers.NewCronHandler(publishJob)
	app.Post("/api/cron/process-scheduled-posts", authMiddleware.CronAuth(), cronHandler.ProcessScheduledPosts)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	publish := handlers.NewPublishHandler(credentialsService, publishService)
	api.Post("/instagram/publish", publish.Publish)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)

	// queue
	var (
		client *asynq.Client
		server *asynq.Server
	)
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client = asynq.NewClient(redisConn)
		defer client.Close()

		queueW := queue.NewQueue(publishJob)
		server = asynq.NewServer(redisConn, asynq.Config{
			// one sweep at a time; posts inside a sweep are sequential too
			Concurrency: 1,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSweepPosts, queueW.HandleSweepTask)

		go func() {
			log.Println("Starting the Asynq server...")
			if err := server.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		log.Println("Warning: REDIS_URI is not set, sweeps run in-process")
	}

	// cron jobs
	c := cron.New()
	if err := c.AddFunc(cfg.SweepSchedule, sweepFunc(client, publishJob)); err != nil {
		log.Fatalf("Invalid SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}
	if err := c.AddFunc(cfg.TokenRefreshSchedule, func() {
		if err := refreshTokenJob.RefreshTokens(context.Background()); err != nil {
			slog.Warn("token refresh failed", "error", err)
		}
	}); err != nil {
		log.Fatalf("Invalid TOKEN_REFRESH_SCHEDULE %q: %v", cfg.TokenRefreshSchedule, err)
	}
	c.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, c, server, db)
}

// sweepFunc hands the sweep to the asynq worker when Redis is available so
// that overlapping triggers collapse into one task.
func sweepFunc(client *asynq.Client, publishJob *job.PublishScheduledJob) func() {
	if client == nil {
		return func() {
			if _, err := publishJob.Run(context.Background()); err != nil {
				slog.Error("scheduled post sweep failed", "error", err)
			}
		}
	}

	return func() {
		err := queue.EnqueueSweep(client, queue.SweepPayload{TriggeredBy: "cron"}, sweepLockTTL)
		if errors.Is(err, asynq.ErrDuplicateTask) {
			slog.Info("sweep already queued or running")
			return
		}
		if err != nil {
			slog.Error("unable to enqueue sweep", "error", err)
		}
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, server *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	if server != nil {
		server.Shutdown()
	}

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
