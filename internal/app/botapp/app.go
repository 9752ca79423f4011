package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/config"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	s3infra "github.com/ivankudzin/tgapp/feedbot/internal/infra/s3"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/feedbot/internal/jobs/cleanup"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	pgrepo "github.com/ivankudzin/tgapp/feedbot/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/feedbot/internal/repo/redis"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/access"
	adminsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/admin"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/alerts"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/audit"
	feedsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/feed"
	mediasvc "github.com/ivankudzin/tgapp/feedbot/internal/services/media"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/profiles"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/ratelimit"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/submission"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/views"
)

type messenger interface {
	Send(msg tgbotapi.Chattable) (int, error)
	Request(msg tgbotapi.Chattable) error
}

type draftStore interface {
	Save(ctx context.Context, chatID int64, draft model.Draft) error
	Get(ctx context.Context, chatID int64) (model.Draft, bool, error)
	Delete(ctx context.Context, chatID int64) error
}

type App struct {
	cfg    config.Config
	logger *zap.Logger

	tg       *telegram.Client
	bot      messenger
	server   *http.Server
	router   http.Handler
	redis    *goredis.Client
	postgres *pgxpool.Pool

	sessions *sessionsvc.Holder
	flow     *submission.Flow
	feed     *feedsvc.Service
	lists    *feedsvc.Lists
	alerts   *alerts.Registry
	views    *views.Tracker
	profiles *profiles.Service
	admin    *adminsvc.Service
	media    *mediasvc.Service
	limiter  *ratelimit.Limiter
	drafts   draftStore
	cleanup  *cleanup.Job

	stateMu     sync.Mutex
	stateByChat map[int64]chatState
}

// infra is what New resolves from config before assembling services.
type infra struct {
	api        *apihttp.Client
	bot        messenger
	redis      *goredis.Client
	postgres   *pgxpool.Pool
	storage    mediasvc.ObjectStorage
	downloader mediasvc.Downloader
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	apiClient, err := apihttp.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.API.Timeout)
	if err != nil {
		return nil, fmt.Errorf("create backend api client: %w", err)
	}

	var redisClient *goredis.Client
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redrepo.Ping(ctx, redisClient); err != nil {
			log.Warn("redis unavailable, sessions and drafts kept in memory", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	var pool *pgxpool.Pool
	if strings.TrimSpace(cfg.Postgres.DSN) != "" {
		if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
			log.Warn("postgres init failed, audit log disabled", zap.Error(err))
		} else {
			pool = p
		}
	} else {
		log.Warn("postgres dsn is empty, audit log disabled")
	}

	deps := infra{
		api:      apiClient,
		redis:    redisClient,
		postgres: pool,
	}

	var photoStorage *mediasvc.S3Storage
	if strings.TrimSpace(cfg.S3.Endpoint) != "" {
		s3Client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 init failed, photo posts disabled", zap.Error(err))
		} else {
			photoStorage = mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
			deps.storage = photoStorage
		}
	} else {
		log.Warn("s3 endpoint is empty, photo posts disabled")
	}

	app := assemble(ctx, cfg, log, deps)
	if photoStorage != nil {
		app.cleanup = cleanup.NewPhotoCleanupJob(photoStorage, cfg.S3.Retention, cfg.S3.CleanupInterval, log)
	}

	webhookURL := ""
	if cfg.Bot.Mode == config.BotModeWebhook {
		webhookURL = cfg.Bot.WebhookURL
	}
	tg, err := telegram.NewClient(telegram.Options{
		Token:       cfg.Bot.Token,
		PollTimeout: cfg.Bot.PollTimeout,
		Workers:     cfg.Bot.Workers,
		WebhookURL:  webhookURL,
	}, log, app.routeUpdate)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	app.tg = tg
	app.bot = tg
	if deps.storage != nil && !tg.DryRun() {
		app.media = mediasvc.NewService(deps.storage, tg, cfg.S3.URLTTL)
	}

	return app, nil
}

func assemble(ctx context.Context, cfg config.Config, log *zap.Logger, deps infra) *App {
	postsRepo := apihttp.NewPostsRepo(deps.api)
	usersRepo := apihttp.NewUsersRepo(deps.api)
	adminRepo := apihttp.NewAdminRepo(deps.api)

	var sessionStore sessionsvc.Store = sessionsvc.NewMemoryStore()
	var drafts draftStore = newMemoryDrafts()
	if deps.redis != nil {
		sessionStore = redrepo.NewSessionRepo(deps.redis)
		drafts = redrepo.NewDraftRepo(deps.redis, cfg.Redis.DraftTTL)
	}

	auditRepo := pgrepo.NewAuditRepo(deps.postgres)
	if auditRepo.Enabled() {
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			log.Warn("audit schema init failed", zap.Error(err))
		}
	}

	var rateStore ratelimit.WindowStore
	if deps.redis != nil {
		rateStore = redrepo.NewRateRepo(deps.redis)
	}
	limiter := ratelimit.NewLimiter(rateStore, log).
		With(ratelimit.ActionLike, ratelimit.Window{Name: "min", Size: time.Minute, Limit: cfg.Limits.LikesPerMinute}).
		With(ratelimit.ActionLike, ratelimit.Window{Name: "10s", Size: 10 * time.Second, Limit: cfg.Limits.LikesPer10Sec}).
		With(ratelimit.ActionPost, ratelimit.Window{Name: "min", Size: time.Minute, Limit: cfg.Limits.PostsPerMinute})

	var analyzer submission.Analyzer
	if cfg.API.ModerationContract == config.ContractPrecheck {
		analyzer = apihttp.NewAnalyzeRepo(deps.api)
	}

	flow := submission.NewFlow(postsRepo, analyzer, submission.Options{Contract: cfg.API.ModerationContract}, log)
	accessService := access.NewService(cfg.Bot.OwnerTGID, cfg.Admin.Usernames)

	app := &App{
		cfg:         cfg,
		logger:      log,
		bot:         deps.bot,
		redis:       deps.redis,
		postgres:    deps.postgres,
		sessions:    sessionsvc.NewHolder(apihttp.NewAuthRepo(deps.api), sessionStore, cfg.Redis.SessionTTL, log),
		flow:        flow,
		feed:        feedsvc.NewService(postsRepo, flow, log),
		lists:       feedsvc.NewLists(),
		alerts:      alerts.NewRegistry(alerts.Options{AllowSuspensionDismiss: cfg.Alerts.AllowSuspensionDismiss}),
		views:       views.NewTracker(context.WithoutCancel(ctx)),
		profiles:    profiles.NewService(usersRepo, postsRepo),
		admin:       adminsvc.NewService(adminRepo, usersRepo, accessService, audit.NewService(auditRepo), log),
		media:       mediasvc.NewService(deps.storage, deps.downloader, cfg.S3.URLTTL),
		limiter:     limiter,
		drafts:      drafts,
		stateByChat: make(map[int64]chatState),
	}

	app.router = app.buildRouter()
	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      app.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return app
}

// Run serves the ops endpoints and receives Telegram updates until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.cleanup != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.cleanup.Start(runCtx)
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("ops server started", zap.String("addr", a.cfg.HTTP.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if a.cfg.Bot.Mode == config.BotModeWebhook {
			errCh <- a.tg.Serve(runCtx)
			return
		}
		errCh <- a.tg.Start(runCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown ops server", zap.Error(err))
	}
	// Redis and Postgres close only after the bot stopped handling updates.
	wg.Wait()
	return runErr
}

func (a *App) close() {
	a.views.Close()
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
}
