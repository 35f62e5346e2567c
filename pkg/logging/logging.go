// Package logging hands out prefixed, leveled loggers that share one
// output and level. The loggers are labstack/gommon loggers, so the same
// instance can be installed as the echo server's logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu     sync.Mutex
	level  = log.INFO
	output io.Writer = os.Stderr
)

// ParseLevel maps a level name to a gommon level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Setup sets the level and output used by loggers created afterwards.
// A nil w keeps the current output.
func Setup(lvl log.Lvl, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	if w != nil {
		output = w
	}
}

// For returns a logger whose prefix names the component.
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := log.New(component)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	return l
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	l := log.New("discard")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}
