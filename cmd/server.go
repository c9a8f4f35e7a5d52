package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/propiter/FormGodoy/internal/config"
	"github.com/propiter/FormGodoy/internal/handlers"
	"github.com/propiter/FormGodoy/internal/logging"
	"github.com/propiter/FormGodoy/internal/refdata"
	"github.com/propiter/FormGodoy/internal/session"
	"github.com/propiter/FormGodoy/internal/sheets"
	"github.com/propiter/FormGodoy/internal/webhook"
)

// MAIN: inicializa logger, configuración, dependencias y servidor HTTP.
func main() {
	// .env para desarrollo local; en despliegue las variables vienen del
	// entorno y el fichero simplemente no existe.
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Configuración obligatoria ausente = no arrancar. Correr con el
	// gateway roto solo aplaza el fallo al primer usuario.
	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	// Inicializar dependencias
	gateway, err := sheets.NewClient(cfg.Sheets.ScriptURL)
	if err != nil {
		zap.L().Fatal("Failed to start sheets gateway", zap.Error(err))
	}

	sender := webhook.NewSender(cfg.Webhook.UpdateURL)
	repo := refdata.NewRepository(gateway, logger)
	sessions := session.NewManager(gateway, sender, logger)
	api := handlers.New(repo, sessions, logger)

	// Carga inicial de datos de referencia. Si falla se arranca igual:
	// el repositorio queda en estado de error y /api/refdata/refresh
	// permite reintentar sin reiniciar el servicio.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 60*time.Second)
	if err := repo.LoadAll(loadCtx); err != nil {
		zap.L().Error("Initial reference data load failed", zap.Error(err))
	}
	cancelLoad()

	// HTTP ROUTES
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// GRACEFUL SHUTDOWN
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		<-sigChan

		zap.L().Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Graceful shutdown failed", zap.Error(err))
		}

		zap.L().Info("Server exited")
		os.Exit(0)
	}()

	zap.L().Info("Server started", zap.String("port", cfg.Server.Port))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zap.L().Error("Server stopped unexpectedly", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// MIDDLEWARE: logging por petición con request id para correlación.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = logging.NewRequestID()
		}
		ctx := logging.WithRequestID(r.Context(), requestID)

		zap.L().Info("Request started",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
			zap.String("request_id", requestID),
		)

		next.ServeHTTP(w, r.WithContext(ctx))

		zap.L().Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// HEALTH CHECK
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "form-godoy",
		Version: "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
