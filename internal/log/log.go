// Package log configures apex/log for the objdiff command. The level comes
// from the OBJDIFF_LOG environment variable
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// EnvVar names the environment variable holding the log level
const EnvVar = "OBJDIFF_LOG"

var traceEnabled bool

// InitLogger sets up apex with a custom handler writing to stderr and a log
// level from OBJDIFF_LOG
func InitLogger() {
	Init(os.Getenv(EnvVar), os.Stderr)
}

// Init sets up apex with a handler writing to w at the named level. unknown
// or empty levels mean "error"
func Init(level string, w io.Writer) {
	level = strings.ToLower(level)
	traceEnabled = level == "trace"
	log.SetHandler(&Handler{Writer: w})
	log.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to an apex level. trace is reported at debug
// level with a "TRACE: " prefix
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.ErrorLevel
	}
}

// Handler formats log messages as "timestamp level message key=value..."
type Handler struct {
	Writer io.Writer
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	message := e.Message
	level := "?"
	if strings.HasPrefix(message, "TRACE: ") {
		level = "T"
		message = message[7:]
	} else {
		switch e.Level {
		case log.DebugLevel:
			level = "D"
		case log.InfoLevel:
			level = "I"
		case log.WarnLevel:
			level = "W"
		case log.ErrorLevel:
			level = "E"
		case log.FatalLevel:
			level = "F"
		}
	}

	b := &strings.Builder{}
	fmt.Fprintf(b, "%s %s %s", timestamp.Format("2006-01-02 15:04:05"), level, message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.Writer, b.String())
	return err
}

// Tracef logs at Trace level (below Debug).
func Tracef(format string, args ...interface{}) {
	if traceEnabled {
		log.Debug("TRACE: " + fmt.Sprintf(format, args...))
	}
}

// Debugf logs at Debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// WithError returns an entry with error.
func WithError(err error) *log.Entry {
	return log.WithError(err)
}
