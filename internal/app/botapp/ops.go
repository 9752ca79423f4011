package botapp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/config"
	redrepo "github.com/ivankudzin/tgapp/feedbot/internal/repo/redis"
	httperrors "github.com/ivankudzin/tgapp/feedbot/internal/transport/http/errors"
)

const (
	shutdownTimeout = 10 * time.Second
	readyTimeout    = 2 * time.Second
	maxWebhookBody  = 1 << 20
)

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}

func (a *App) buildRouter() http.Handler {
	r := chi.NewRouter()
	ApplyMiddlewares(r, a.logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusOK, httperrors.Status{Status: "ok"})
	})
	r.Get("/readyz", a.handleReady)

	if a.cfg.Bot.Mode == config.BotModeWebhook {
		r.Post(a.cfg.Bot.WebhookPath, a.handleWebhook)
	}
	return r
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"redis":    "disabled",
		"postgres": "disabled",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if a.redis != nil {
		if err := redrepo.Ping(ctx, a.redis); err != nil {
			a.logger.Warn("readiness redis ping failed", zap.Error(err))
			components["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			components["redis"] = "ok"
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Ping(ctx); err != nil {
			// The audit log is optional; report it without failing readiness.
			components["postgres"] = "unavailable"
		} else {
			components["postgres"] = "ok"
		}
	}

	body := httperrors.Status{Status: "ok", Components: components}
	if status != http.StatusOK {
		body.Status = "unavailable"
	}
	httperrors.Write(w, status, body)
}

func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&update); err != nil {
		httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{
			Code:    "BAD_UPDATE",
			Message: "invalid telegram update",
		})
		return
	}
	if a.tg != nil {
		a.tg.HandleUpdate(update)
	} else {
		a.routeUpdate(r.Context(), update)
	}
	w.WriteHeader(http.StatusOK)
}
