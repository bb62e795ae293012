package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/pokegraph/internal/evallog"
	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"
	"github.com/OFFIS-RIT/pokegraph/internal/queue"
	mid "github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New returns an echo instance with all routes registered on app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "512M")))

	RegisterRoutes(e)
	return e
}

// Init builds the pipeline from the environment and serves the API until
// SIGINT or SIGTERM.
func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := pipeline.ConfigFromEnv()

	aiClient, err := pipeline.NewAIClientFromEnv()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	res, err := pipeline.Bootstrap(ctx, cfg, aiClient)
	if err != nil {
		logger.Fatal("Failed to set up pipeline", "err", err)
	}
	defer res.Close()

	app := &mid.App{
		Pipeline:       res.Pipeline,
		EvalLog:        evallog.New(cfg.EvalLogPath),
		PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
	}
	if res.Bucket != nil {
		app.Files = res.Bucket
	}

	if queue.Enabled() {
		conn, err := queue.Init()
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
