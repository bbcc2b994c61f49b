// Package logger provides structured logging for postfilter
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with postfilter-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "postfilter").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// GrpcLogger returns a logger for gRPC operations
func (l *Logger) GrpcLogger(method string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "grpc").
			Str("method", method).
			Logger(),
	}
}

// EngineLogger returns a logger for batch query operations
func (l *Logger) EngineLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "engine").
			Str("operation", operation).
			Logger(),
	}
}

// LogGrpcRequest logs a completed gRPC request
func (l *Logger) LogGrpcRequest(method string, duration time.Duration, err error) {
	event := l.zlog.Info()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("component", "grpc").
		Str("method", method).
		Dur("duration_ms", duration).
		Msg("gRPC request completed")
}

// LogQuery logs a completed batch query
func (l *Logger) LogQuery(items, matched int, duration time.Duration, err error) {
	event := l.zlog.Debug().Int("matched", matched)
	if err != nil {
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("component", "engine").
		Int("items", items).
		Dur("duration_ms", duration).
		Msg("Query completed")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(grpcPort, metricsPort int) {
	l.zlog.Info().
		Str("event", "server_start").
		Int("port", grpcPort).
		Int("metrics_port", metricsPort).
		Msg("postfilter server starting")
}

// LogServerReady logs when server is ready
func (l *Logger) LogServerReady(port int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Int("port", port).
		Msg("postfilter server ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("postfilter server shutting down")
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
	return globalLogger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	l := globalLogger
	globalMu.Unlock()

	if l == nil {
		// Initialize with defaults if not set
		return InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return l
}
