package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/controllers"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/services/tmdb"
	"github.com/qbitremote/qbitremote/internal/utils"
)

// pendingRule remembers a rule request across the quality pick and a
// possible replace confirmation. Callback payloads are too small to
// carry the whole request.
type pendingRule struct {
	kind         string // "movie" or "tv"
	query        string
	quality      string
	existingName string
}

// Bot is the Telegram front end. Updates are handled sequentially, so
// the per-user caches only need a mutex against the notification path.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	db        *models.Database
	search    *controllers.SearchController
	downloads *controllers.DownloadController
	rules     *controllers.RuleController
	logger    *logrus.Logger

	mu           sync.Mutex
	pages        map[int64]*prowlarr.SearchPage
	ruleLists    map[int64][]qbittorrent.Rule
	upcoming     map[int64][]tmdb.Movie
	pendingRules map[int64]*pendingRule
}

// New creates the Telegram bot and verifies the token
func New(cfg *config.Config, db *models.Database, search *controllers.SearchController, downloads *controllers.DownloadController, rules *controllers.RuleController, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	logger.WithField("username", api.Self.UserName).Info("Telegram bot authorized")

	return &Bot{
		api:          api,
		cfg:          cfg,
		db:           db,
		search:       search,
		downloads:    downloads,
		rules:        rules,
		logger:       logger,
		pages:        make(map[int64]*prowlarr.SearchPage),
		ruleLists:    make(map[int64][]qbittorrent.Rule),
		upcoming:     make(map[int64][]tmdb.Movie),
		pendingRules: make(map[int64]*pendingRule),
	}, nil
}

// Run polls for updates until the context is cancelled
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Telegram bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update through the auth gate
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		userID := update.Message.From.ID
		if !b.cfg.IsAuthorized(userID) {
			// /debug stays reachable so a denied user can read off the
			// ID that needs to go on the allow-list
			if update.Message.IsCommand() && update.Message.Command() == "debug" {
				b.send(update.Message.Chat.ID,
					fmt.Sprintf("*Debug*\n\nyour id: `%d`\nauthorized: `false`", userID))
				return
			}
			b.logger.WithFields(logrus.Fields{
				"user_id":  userID,
				"username": update.Message.From.UserName,
			}).Warn("Ignoring message from unauthorized user")
			return
		}
		b.handleMessage(ctx, update.Message)

	case update.CallbackQuery != nil:
		userID := update.CallbackQuery.From.ID
		if !b.cfg.IsAuthorized(userID) {
			b.logger.WithField("user_id", userID).Warn("Ignoring callback from unauthorized user")
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// send delivers a Markdown message, logging delivery failures
func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// sendWithKeyboard delivers a Markdown message with an inline keyboard
func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// NotifyDownloadComplete tells the owning user a download finished.
// Called from the completion poller.
func (b *Bot) NotifyDownloadComplete(record *models.DownloadRecord) {
	title := utils.ExtractTitle(record.Title)
	b.send(record.UserID, fmt.Sprintf("✅ Download complete: %s", escapeMarkdown(title)))
}
