// Package telegram runs the bot over the Telegram Bot API: command
// messages, inline sticker search and sticker registration.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/senselabs/sense/internal/bot"
	"github.com/senselabs/sense/internal/config"
	"github.com/senselabs/sense/internal/search"
)

// Bot is the Telegram transport around the search pipeline.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.BotConfig
	searcher *search.Searcher
}

// New connects to the Telegram API with the configured token.
func New(cfg *config.BotConfig, searcher *search.Searcher) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("no token provided for the Telegram bot")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	slog.Info("connected to Telegram", "bot", api.Self.UserName)
	return &Bot{api: api, cfg: cfg, searcher: searcher}, nil
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	from := update.SentFrom()
	if from == nil || !b.cfg.Allowed(from.ID) {
		return
	}

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.InlineQuery != nil:
		b.handleInline(ctx, update.InlineQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" {
		b.reply(msg.Chat.ID, bot.Fallback(msg.MessageID))
		return
	}

	cmd, err := bot.Parse(msg.Text, b.api.Self.UserName)
	if err != nil {
		if !errors.Is(err, bot.ErrNotCommand) {
			slog.Debug("unparseable command", "text", msg.Text, "error", err)
		}
		b.reply(msg.Chat.ID, bot.Fallback(msg.MessageID))
		return
	}

	switch cmd.Kind {
	case bot.Help:
		b.reply(msg.Chat.ID, bot.HelpText(b.cfg.Postscript))
	case bot.Search:
		if cmd.Arg == "" {
			b.reply(msg.Chat.ID, "😸 What should I sniff out? Try /search <query>.")
			return
		}
		matches, err := b.searcher.Search(ctx, cmd.Arg, b.cfg.NumResults)
		if err != nil {
			slog.Error("search failed", "query", cmd.Arg, "error", err)
			b.reply(msg.Chat.ID, "😿 Something went wrong while searching.")
			return
		}
		b.reply(msg.Chat.ID, bot.FormatMatches(matches))
	}
}

func (b *Bot) handleInline(ctx context.Context, query *tgbotapi.InlineQuery) {
	text := query.Query
	if text == "" {
		b.answerInlineText(query.ID, "Meow!",
			"Keep paw-typing to sniff out the purr-fect meme... 😸")
		return
	}

	slog.Info("handling inline query", "query", text)

	matches, err := b.searcher.SearchWithID(ctx, text, b.cfg.NumResults)
	if err != nil {
		slog.Error("inline search failed", "query", text, "error", err)
		b.answerInlineText(query.ID, "😿 Error", "Failed to search the database.")
		return
	}
	if len(matches) == 0 {
		b.answerInlineText(query.ID, "😿 No results", "No results found.")
		return
	}

	results := make([]interface{}, len(matches))
	for i, m := range matches {
		results[i] = tgbotapi.NewInlineQueryResultCachedSticker(
			strconv.Itoa(i), m.FileID, m.Key)
	}

	if _, err := b.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       results,
	}); err != nil {
		slog.Warn("failed to answer inline query", "error", err)
	}
}

func (b *Bot) answerInlineText(queryID, title, content string) {
	article := tgbotapi.NewInlineQueryResultArticle("1", title, content)
	article.Description = content

	if _, err := b.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       []interface{}{article},
	}); err != nil {
		slog.Warn("failed to answer inline query", "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Warn("failed to send message", "chat", chatID, "error", err)
	}
}
