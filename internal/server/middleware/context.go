package middleware

import (
	"context"
	"io"

	"github.com/OFFIS-RIT/pokegraph/internal/evallog"
	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"
	"github.com/OFFIS-RIT/pokegraph/internal/queue"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"

	"github.com/labstack/echo/v4"
)

// GraphService is the pipeline as seen by the handlers.
type GraphService interface {
	Ingest(ctx context.Context, opts ingest.Options) (*ingest.Result, error)
	IngestFile(ctx context.Context, m common.Modality, name string, r io.Reader) (common.Record, error)
	Process(ctx context.Context) (*pipeline.ProcessResult, error)
	Graph(ctx context.Context) ([]byte, error)
}

// LinkSigner creates temporary download links for stored objects.
type LinkSigner interface {
	GenerateDownloadLink(ctx context.Context, key string, publicEndpoint string) (string, error)
}

// App holds the dependencies shared by all handlers. Queue and Files are
// nil when RabbitMQ or S3 are not configured.
type App struct {
	Pipeline       GraphService
	EvalLog        *evallog.Log
	Queue          queue.Channel
	Files          LinkSigner
	PublicEndpoint string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
