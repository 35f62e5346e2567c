package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/chazu/figforge/pkg/config"
	"github.com/chazu/figforge/pkg/design/memory"
	"github.com/chazu/figforge/pkg/events"
	"github.com/chazu/figforge/pkg/imageload"
	"github.com/chazu/figforge/pkg/logging"
	"github.com/chazu/figforge/pkg/script"
	"github.com/chazu/figforge/pkg/server"
	"github.com/chazu/figforge/pkg/shape"
)

// shutdownGrace bounds how long Serve waits for in-flight requests.
const shutdownGrace = 5 * time.Second

// App wires the in-memory document, the shape and script engines, the
// event hub and the HTTP server together.
type App struct {
	cfg     config.Config
	log     *log.Logger
	doc     *memory.Document
	shapes  *shape.Engine
	scripts *script.Engine
	hub     *events.Hub
	server  *server.Server
}

// EvalResult is the outcome of running a script through the App.
type EvalResult struct {
	RunID  string             `json:"runId,omitempty"`
	Nodes  []shape.Summary    `json:"nodes"`
	Errors []script.EvalError `json:"errors"`
}

// NewApp builds an App from cfg. Logging must already be set up.
func NewApp(cfg config.Config) *App {
	a := &App{cfg: cfg, log: logging.For("app"), doc: memory.New()}

	client := &http.Client{Timeout: cfg.Image.FetchTimeout}
	loader := imageload.New(client, cfg.Image.MaxBytes)

	a.hub = events.NewHub(cfg.Events.Buffer, logging.For("events"))
	a.shapes = shape.New(a.doc, loader, logging.For("shape"))
	a.scripts = script.New(a.shapes, script.Options{
		Timeout: cfg.Script.Timeout,
		Logger:  logging.For("script"),
		OnChange: func(c script.Change) {
			a.hub.Notify(events.Type(c.Op), c.Summary)
		},
	})
	a.server = server.New(server.Deps{
		Shapes:  a.shapes,
		Scripts: a.scripts,
		Nodes:   a.doc,
		Hub:     a.hub,
		Logger:  logging.For("http"),
	})
	return a
}

// Evaluate runs source against the App's document.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Nodes:  []shape.Summary{},
		Errors: []script.EvalError{},
	}

	res, evalErrs, err := a.scripts.Evaluate(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Errorf("evaluate: %v", err)
		result.Errors = append(result.Errors, script.EvalError{Message: err.Error()})
		return result
	}

	result.RunID = res.RunID
	result.Nodes = append(result.Nodes, res.Summaries()...)
	result.Errors = append(result.Errors, evalErrs...)
	return result
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- a.server.Start(a.cfg.Listen) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
