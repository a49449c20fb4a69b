package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	contact "github.com/muhammadghufran/portfolio/internal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := contact.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := contact.NewLogger(os.Stdout, config.LogLevel, config.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newRateLimitStore(ctx, config)
	if err != nil {
		return err
	}
	defer closeStore()

	if !config.SMTP.Enabled() {
		logger.Warn("email password not configured, contact submissions will be logged but not delivered")
	}
	sender := contact.NewSender(config.SMTP, config.MailPerMinute)

	relay := contact.NewRelay(contact.RelayConfig{
		From:          config.SMTP.User,
		To:            config.ContactTo,
		SubjectPrefix: config.SubjectPrefix,
		Owner:         config.Owner,
	}, store, sender, logger)

	server := contact.NewServer(config, relay)
	handler := loggingMiddleware(logger, secHeaders(server.Routes()))

	s := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	logger.Info("portfolio server listening",
		"addr", config.ListenAddr,
		"rate_limit", config.RateLimitMax,
		"window", config.RateLimitWindow,
		"redis", config.Redis.Addr != "",
		"static", config.StaticDir,
	)

	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newRateLimitStore(ctx context.Context, config *contact.Config) (contact.RateLimitStore, func(), error) {
	if config.Redis.Addr == "" {
		return contact.NewMemoryStore(config.RateLimitMax, config.RateLimitWindow), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", config.Redis.Addr, err)
	}
	store := contact.NewRedisStore(rdb, config.RateLimitMax, config.RateLimitWindow,
		contact.WithKeyPrefix(config.Redis.Prefix))
	return store, func() { _ = rdb.Close() }, nil
}

func secHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(baseLogger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		requestLogger := baseLogger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
		)

		ctx := contact.ContextWithLogger(r.Context(), requestLogger)
		ctx = contact.ContextWithRequestID(ctx, requestID)
		r = r.WithContext(ctx)

		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				requestLogger.Error("panic recovered",
					"err", rec,
					"type", fmt.Sprintf("%T", rec),
					"stack", string(debug.Stack()),
				)
				if !lrw.wrote {
					lrw.Header().Set("Content-Type", "application/json; charset=utf-8")
					lrw.WriteHeader(http.StatusInternalServerError)
					_, _ = lrw.Write([]byte(`{"success":false,"error":"An unexpected error occurred. Please try again later."}` + "\n"))
				}
			}
			duration := time.Since(start)
			level := slog.LevelInfo
			switch {
			case lrw.status >= 500:
				level = slog.LevelError
			case lrw.status >= 400:
				level = slog.LevelWarn
			}
			requestLogger.Log(ctx, level, "request completed",
				"status", lrw.status,
				"duration_ms", duration.Milliseconds(),
				"bytes", lrw.length,
			)
		}()

		next.ServeHTTP(lrw, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	length int
	wrote  bool
}

func (lrw *loggingResponseWriter) WriteHeader(status int) {
	if !lrw.wrote {
		lrw.ResponseWriter.WriteHeader(status)
		lrw.wrote = true
	}
	lrw.status = status
}

func (lrw *loggingResponseWriter) Write(p []byte) (int, error) {
	if !lrw.wrote {
		lrw.WriteHeader(http.StatusOK)
	}
	n, err := lrw.ResponseWriter.Write(p)
	lrw.length += n
	return n, err
}
