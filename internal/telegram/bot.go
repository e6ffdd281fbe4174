package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"nourish/internal/app"
	"nourish/internal/config"
	"nourish/internal/meal"
)

// requestTimeout bounds the handling of one message.
const requestTimeout = 2 * time.Minute

// Bot wraps the Telegram API and the application.
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *app.App
	cfg    *config.Config
	logger *zap.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, application *app.App, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("response", resp.Description))

	return &Bot{api: api, app: application, cfg: cfg, logger: logger}, nil
}

// Handler returns the webhook and health endpoints.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	if !slices.Contains(b.cfg.TelegramAllowedUserIDs, from.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", from.ID),
			zap.String("username", from.UserName))
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	userID := strconv.FormatInt(msg.From.ID, 10)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "today":
		b.handleToday(ctx, msg.Chat.ID, userID)
	case "week":
		b.handleWeek(ctx, msg.Chat.ID, userID)
	case "profile":
		b.handleProfile(ctx, msg.Chat.ID, userID, args)
	case "barcode":
		b.handleBarcode(ctx, msg.Chat.ID, userID, args)
	case "delete":
		b.handleDelete(ctx, msg.Chat.ID, userID, args)
	case "missing":
		if b.requireAdmin(msg) {
			b.handleMissing(ctx, msg.Chat.ID)
		}
	case "metrics":
		if b.requireAdmin(msg) {
			b.handleMetrics(ctx, msg.Chat.ID)
		}
	case "":
		b.handleMealText(ctx, msg.Chat.ID, userID, msg.Text)
	default:
		b.reply(msg.Chat.ID, "🤷 Unknown command.\n\n"+helpText)
	}
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if b.cfg.TelegramAdminID == 0 || msg.From.ID != b.cfg.TelegramAdminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return false
	}
	return true
}

func (b *Bot) handleMealText(ctx context.Context, chatID int64, userID, text string) {
	sent, err := b.api.Send(markdown(chatID, "🔎 *Looking up your meal...*"))
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return
	}

	m, err := b.app.LogText(ctx, userID, text, "", meal.InputText)
	var out string
	switch {
	case errors.Is(err, meal.ErrNoItems):
		out = "🤔 I could not find any food in that message."
	case err != nil:
		b.logger.Error("failed to log meal", zap.String("user_id", userID), zap.Error(err))
		out = errorText("logging meal", err)
	default:
		out = formatMealMarkdown(m)
	}

	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, out)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) handleBarcode(ctx context.Context, chatID int64, userID, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.reply(chatID, "Usage: `/barcode <ean> [grams]`")
		return
	}
	grams := 100.0
	if len(fields) > 1 {
		g, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "g"), 64)
		if err != nil || g <= 0 {
			b.reply(chatID, "Grams must be a positive number.")
			return
		}
		grams = g
	}

	m, err := b.app.LogBarcode(ctx, userID, fields[0], grams, "")
	if err != nil {
		b.logger.Error("failed to log barcode", zap.String("barcode", fields[0]), zap.Error(err))
		b.reply(chatID, errorText("logging barcode", err))
		return
	}
	b.reply(chatID, formatMealMarkdown(m))
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, userID string) {
	sum, err := b.app.Meals().DailySummary(ctx, userID, time.Now())
	if err != nil {
		b.logger.Error("failed to build daily summary", zap.String("user_id", userID), zap.Error(err))
		b.reply(chatID, errorText("loading today", err))
		return
	}
	b.reply(chatID, formatDayMarkdown(sum))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64, userID string) {
	week, err := b.app.Meals().WeekSummary(ctx, userID, time.Now())
	if err != nil {
		b.logger.Error("failed to build week summary", zap.String("user_id", userID), zap.Error(err))
		b.reply(chatID, errorText("loading the week", err))
		return
	}
	b.reply(chatID, formatWeekMarkdown(week))
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64, userID, args string) {
	svc := b.app.Meals()
	p, err := svc.GetProfile(ctx, userID)
	if err != nil {
		b.reply(chatID, errorText("loading profile", err))
		return
	}
	if p == nil {
		p = &meal.Profile{UserID: userID}
	}

	if args != "" {
		if err := applyProfileArgs(&p.Attributes, args); err != nil {
			b.reply(chatID, "❌ "+err.Error()+"\n\n"+profileUsage)
			return
		}
		if err := svc.SaveProfile(ctx, *p); err != nil {
			b.logger.Error("failed to save profile", zap.String("user_id", userID), zap.Error(err))
			b.reply(chatID, errorText("saving profile", err))
			return
		}
	}

	target, err := svc.TargetFor(ctx, userID, time.Now())
	if err != nil {
		b.reply(chatID, errorText("computing target", err))
		return
	}
	b.reply(chatID, formatProfileMarkdown(p, target))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, userID, args string) {
	if args == "" {
		b.reply(chatID, "Usage: `/delete <meal id>`")
		return
	}
	err := b.app.Meals().DeleteMeal(ctx, userID, args)
	switch {
	case errors.Is(err, meal.ErrNotFound):
		b.reply(chatID, "No such meal.")
	case err != nil:
		b.reply(chatID, errorText("deleting meal", err))
	default:
		b.reply(chatID, "🗑 Meal deleted.")
	}
}

func (b *Bot) handleMissing(ctx context.Context, chatID int64) {
	missing, err := b.app.MissingFoods(ctx, 30)
	if err != nil {
		b.reply(chatID, errorText("listing missing foods", err))
		return
	}
	b.reply(chatID, formatMissingMarkdown(missing))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	report, err := b.app.Metrics(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetricsMarkdown(report))
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(markdown(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Error(err))
	}
}

func markdown(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}
