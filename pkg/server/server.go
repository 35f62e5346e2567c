// Package server is the HTTP surface of figforge. It translates JSON
// requests into shape engine calls, maps engine error kinds onto status
// codes and publishes a change event for every successful mutation.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/samber/lo"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/events"
	"github.com/chazu/figforge/pkg/logging"
	"github.com/chazu/figforge/pkg/script"
	"github.com/chazu/figforge/pkg/shape"
)

const (
	// maxScriptBytes caps a POST /scripts body; scriptBodyLimit is the
	// same limit in echo's notation.
	maxScriptBytes  = 1 << 20
	scriptBodyLimit = "1M"
	// readHeaderTimeout bounds header reads on the listener.
	readHeaderTimeout = 10 * time.Second
)

// Shapes is the shape engine surface the handlers use.
type Shapes interface {
	Create(ctx context.Context, kind shape.ShapeKind, props shape.Properties) (shape.Summary, error)
	Modify(ctx context.Context, id string, props shape.Properties) error
	Read(ctx context.Context, id string) (shape.Summary, error)
}

// Scripts evaluates batch scripts.
type Scripts interface {
	Evaluate(ctx context.Context, source string) (*script.Result, []script.EvalError, error)
}

// Lister enumerates the document's nodes in creation order.
type Lister interface {
	Nodes() []design.SceneNode
}

// Deps are the collaborators a Server needs. Scripts, Nodes and Hub are
// optional; their routes answer 501 when absent.
type Deps struct {
	Shapes  Shapes
	Scripts Scripts
	Nodes   Lister
	Hub     *events.Hub
	Logger  *log.Logger
}

// Server wraps an echo instance wired to the engine.
type Server struct {
	deps Deps
	echo *echo.Echo
	log  *log.Logger
}

// CreateRequest is the POST /nodes body.
type CreateRequest struct {
	Type       shape.ShapeKind  `json:"type"`
	Properties shape.Properties `json:"properties"`
}

// ScriptRequest is the JSON form of a POST /scripts body. A text/plain
// body is taken as the source itself.
type ScriptRequest struct {
	Source string `json:"source"`
}

// ScriptResponse reports a script run.
type ScriptResponse struct {
	RunID   string             `json:"runId"`
	Changes []script.Change    `json:"changes"`
	Errors  []script.EvalError `json:"errors"`
}

// New builds the server and registers its routes.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = deps.Logger
	e.Server.ReadHeaderTimeout = readHeaderTimeout

	s := &Server{deps: deps, echo: e, log: deps.Logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debugf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	e.POST("/nodes", s.createNode)
	e.GET("/nodes", s.listNodes)
	e.GET("/nodes/:id", s.readNode)
	e.PATCH("/nodes/:id", s.modifyNode)
	e.POST("/scripts", s.runScript, middleware.BodyLimit(scriptBodyLimit))
	e.GET("/events", s.streamEvents)
	return s
}

// ServeHTTP lets the server be mounted or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	s.log.Infof("listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createNode(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type is required")
	}
	sum, err := s.deps.Shapes.Create(c.Request().Context(), req.Type, req.Properties)
	if err != nil {
		return err
	}
	s.notify(events.Created, sum)
	return c.JSON(http.StatusCreated, sum)
}

func (s *Server) listNodes(c echo.Context) error {
	if s.deps.Nodes == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "node listing is not available")
	}
	sums := lo.Map(s.deps.Nodes.Nodes(), func(n design.SceneNode, _ int) shape.Summary {
		return shape.Summarize(n)
	})
	return c.JSON(http.StatusOK, sums)
}

func (s *Server) readNode(c echo.Context) error {
	sum, err := s.deps.Shapes.Read(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) modifyNode(c echo.Context) error {
	id := c.Param("id")
	var props shape.Properties
	if err := c.Bind(&props); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.deps.Shapes.Modify(ctx, id, props); err != nil {
		return err
	}
	sum, err := s.deps.Shapes.Read(ctx, id)
	if err != nil {
		return err
	}
	s.notify(events.Modified, sum)
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) runScript(c echo.Context) error {
	if s.deps.Scripts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "scripting is not available")
	}
	source, err := scriptSource(c)
	if err != nil {
		return err
	}

	res, evalErrs, err := s.deps.Scripts.Evaluate(c.Request().Context(), source)
	if err != nil {
		return err
	}
	resp := ScriptResponse{RunID: res.RunID, Changes: res.Changes, Errors: evalErrs}
	if resp.Errors == nil {
		resp.Errors = []script.EvalError{}
	}
	status := http.StatusOK
	if len(evalErrs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, resp)
}

// scriptSource reads the script from a JSON or plain-text body.
func scriptSource(c echo.Context) (string, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body ScriptRequest
		if err := c.Bind(&body); err != nil {
			if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
				return "", echo.ErrStatusRequestEntityTooLarge
			}
			return "", err
		}
		return body.Source, nil
	}
	b, err := io.ReadAll(io.LimitReader(req.Body, maxScriptBytes+1))
	switch {
	case errors.Is(err, echo.ErrStatusRequestEntityTooLarge), len(b) > maxScriptBytes:
		return "", echo.ErrStatusRequestEntityTooLarge
	case err != nil:
		return "", echo.NewHTTPError(http.StatusBadRequest, "read script body").SetInternal(err)
	}
	return string(b), nil
}

func (s *Server) streamEvents(c echo.Context) error {
	if s.deps.Hub == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "events are not available")
	}
	if err := s.deps.Hub.ServeWS(c.Response(), c.Request()); err != nil {
		// The upgrader has already written the failure response.
		s.log.Debugf("websocket upgrade: %v", err)
	}
	return nil
}

func (s *Server) notify(typ events.Type, sum shape.Summary) {
	if s.deps.Hub != nil {
		s.deps.Hub.Notify(typ, sum)
	}
}
