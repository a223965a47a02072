package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/blaircullen/socialdesk/configs"
	"github.com/blaircullen/socialdesk/internal/api/handlers"
	"github.com/blaircullen/socialdesk/internal/api/middleware"
	job "github.com/blaircullen/socialdesk/internal/jobs"
	"github.com/blaircullen/socialdesk/internal/queue"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    20 * 1024 * 1024, // 20 MB, image uploads only
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewSocialPostRepository(db)
	accountRepo := repository.NewSocialAccountRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	profileRepo := repository.NewPostingProfileRepository(db)

	publisher := service.NewHTTPPublisher(*cfg)
	captionGenerator := service.NewHTTPCaptionGenerator(*cfg)
	mediaService := service.NewMediaService(*cfg)
	advisorService := service.NewAdvisorService(profileRepo, accountRepo)
	queueService := service.NewQueueService(postRepo, articleRepo, accountRepo, advisorService)
	dispatchService := service.NewDispatchService(*cfg, postRepo, accountRepo, publisher)
	boardService := service.NewBoardService(queueService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(queueService, dispatchService, mediaService, captionGenerator, client)
	api.Post("/posts/create", post.CreatePosts)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/approve", post.ApprovePost)
	api.Post("/posts/send", post.SendPost)
	api.Post("/posts/retry", post.RetryPost)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/caption", post.UpdateCaption)
	api.Post("/posts/schedule", post.UpdateSchedule)
	api.Post("/posts/batch/approve", post.BatchApprove)
	api.Post("/posts/batch/remove", post.BatchDelete)
	api.Post("/posts/caption/generate", post.GenerateCaption)

	board := handlers.NewBoardHandler(boardService)
	api.Get("/board", board.GetBoard)

	account := handlers.NewAccountHandler(accountRepo, advisorService)
	api.Get("/accounts", account.ListAccounts)
	api.Get("/accounts/:id/profile", account.GetProfileInsight)

	// cron jobs
	sweepJob := job.NewDispatchSweepJob(dispatchService)
	stuckJob := job.NewStuckSendingJob(*cfg, postRepo)

	// queue
	queueW := queue.NewQueue(dispatchService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", sweepJob.Sweep)
	c.AddFunc("@every 00h05m00s", stuckJob.Reconcile)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatchPost, queueW.HandleDispatchPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
