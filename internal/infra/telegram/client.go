package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UpdateHandler func(context.Context, tgbotapi.Update)

type Options struct {
	Token       string
	PollTimeout int
	Workers     int
	WebhookURL  string
}

type Client struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	handler     UpdateHandler
	httpClient  *http.Client
	pollTimeout int
	webhookURL  string
	dryRun      bool

	pool *errgroup.Group

	runMu  sync.RWMutex
	runCtx context.Context
}

func NewClient(opts Options, logger *zap.Logger, handler UpdateHandler) (*Client, error) {
	if handler == nil {
		return nil, errors.New("telegram update handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	pool := new(errgroup.Group)
	pool.SetLimit(workers)

	client := &Client{
		logger:      logger,
		handler:     handler,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		pollTimeout: opts.PollTimeout,
		webhookURL:  strings.TrimSpace(opts.WebhookURL),
		pool:        pool,
	}

	if strings.TrimSpace(opts.Token) == "" {
		client.dryRun = true
		return client, nil
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(opts.Token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}
	client.api = api

	return client, nil
}

func (c *Client) DryRun() bool {
	return c.dryRun
}

// Start long-polls updates and dispatches them to the worker pool until ctx is done.
func (c *Client) Start(ctx context.Context) error {
	c.setRunContext(ctx)
	defer c.wait()

	if c.dryRun {
		c.logger.Warn("BOT_TOKEN is empty, running in dry mode")
		<-ctx.Done()
		return nil
	}

	timeout := c.pollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = timeout
	updates := c.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.dispatch(ctx, update)
		}
	}
}

// Serve is the webhook counterpart of Start: updates arrive through HandleUpdate.
func (c *Client) Serve(ctx context.Context) error {
	c.setRunContext(ctx)
	defer c.wait()

	if !c.dryRun && c.webhookURL != "" {
		webhook, err := tgbotapi.NewWebhook(c.webhookURL)
		if err != nil {
			return fmt.Errorf("build telegram webhook config: %w", err)
		}
		if _, err := c.api.Request(webhook); err != nil {
			return fmt.Errorf("register telegram webhook: %w", err)
		}
		c.logger.Info("telegram webhook registered", zap.String("url", c.webhookURL))
	}

	<-ctx.Done()
	return nil
}

func (c *Client) HandleUpdate(update tgbotapi.Update) {
	c.dispatch(c.currentRunContext(), update)
}

func (c *Client) dispatch(ctx context.Context, update tgbotapi.Update) {
	c.pool.Go(func() error {
		defer func() {
			if recovered := recover(); recovered != nil {
				c.logger.Error("telegram update handler panicked",
					zap.Int("update_id", update.UpdateID),
					zap.Any("panic", recovered),
				)
			}
		}()
		c.handler(ctx, update)
		return nil
	})
}

func (c *Client) wait() {
	_ = c.pool.Wait()
}

func (c *Client) setRunContext(ctx context.Context) {
	c.runMu.Lock()
	c.runCtx = ctx
	c.runMu.Unlock()
}

func (c *Client) currentRunContext() context.Context {
	c.runMu.RLock()
	defer c.runMu.RUnlock()
	if c.runCtx == nil {
		return context.Background()
	}
	return c.runCtx
}

// Send returns the id of the sent message, or 0 in dry mode.
func (c *Client) Send(msg tgbotapi.Chattable) (int, error) {
	if c.dryRun {
		return 0, nil
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) Request(msg tgbotapi.Chattable) error {
	if c.dryRun {
		return nil
	}
	_, err := c.api.Request(msg)
	return err
}

func (c *Client) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, int64, string, error) {
	if c.dryRun {
		return nil, 0, "", errors.New("telegram client is in dry mode")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, 0, "", errors.New("file id is required")
	}

	fileURL, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("get telegram file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("download telegram file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" || contentType == "application/octet-stream" {
		contentType = contentTypeByName(path.Base(fileURL))
	}

	return resp.Body, resp.ContentLength, contentType, nil
}

func contentTypeByName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
