package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chazu/figforge/pkg/script"
	"github.com/chazu/figforge/pkg/shape"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure. Kind is a shape.ErrorKind name for
// engine failures and a short tag otherwise.
type ErrorDetail struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Shape    string `json:"shape,omitempty"`
	Property string `json:"property,omitempty"`
	NodeID   string `json:"nodeId,omitempty"`
}

// statusFor maps each engine error kind to an HTTP status.
var statusFor = map[shape.ErrorKind]int{
	shape.UnsupportedShapeKind:    http.StatusBadRequest,
	shape.MissingRequiredProperty: http.StatusBadRequest,
	shape.ImageLoadFailure:        http.StatusBadGateway,
	shape.ImageUpdateFailure:      http.StatusBadGateway,
	shape.NodeNotFound:            http.StatusNotFound,
}

// classify turns any handler error into a status and body.
func classify(err error) (int, ErrorBody) {
	var (
		se *shape.Error
		he *echo.HTTPError
		te *script.TimeoutError
	)
	switch {
	case errors.As(err, &se):
		status, ok := statusFor[se.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, ErrorBody{ErrorDetail{
			Kind:     se.Kind.String(),
			Message:  se.Error(),
			Shape:    string(se.Shape),
			Property: se.Property,
			NodeID:   se.NodeID,
		}}

	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorBody{ErrorDetail{Kind: "request", Message: msg}}

	case errors.As(err, &te):
		return http.StatusGatewayTimeout, ErrorBody{ErrorDetail{Kind: "script_timeout", Message: te.Error()}}

	case errors.Is(err, script.ErrSuperseded):
		return http.StatusConflict, ErrorBody{ErrorDetail{Kind: "script_superseded", Message: err.Error()}}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorBody{ErrorDetail{Kind: "canceled", Message: err.Error()}}
	}
	return http.StatusInternalServerError, ErrorBody{ErrorDetail{Kind: "internal", Message: err.Error()}}
}

// handleError is installed as echo's HTTPErrorHandler.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	} else {
		s.log.Debugf("%s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Warnf("write error response: %v", err)
	}
}
