// Command gamal-telegram is the Telegram front-end: a long-poller over
// the Bot API, running the pipeline per incoming text message and
// replying once the cited answer completes. Slash-commands /reset and
// /review are intercepted before the pipeline runs, per-chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gamal/internal/citation"
	"gamal/internal/config"
	"gamal/internal/debugtrace"
	"gamal/internal/llmclient"
	_ "gamal/internal/llmclient/autoload" // Auto-register LLM providers
	"gamal/internal/logging"
	"gamal/internal/pipeline"
	"gamal/internal/rag"
	"gamal/internal/search"
)

// pollInterval matches spec.md's GET /bot<TOKEN>/getUpdates cadence.
const pollInterval = 200 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return -1
	}
	if err := cfg.RequireTelegram(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return -1
	}

	logging.Setup(cfg.LogLevel)
	logging.PrintBanner()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		fmt.Fprintln(os.Stderr, "telegram auth:", err)
		return -1
	}
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)

	client, err := llmclient.Resolve(cfg.LLMProvider, llmclient.ProviderConfig{
		BaseURL: cfg.LLMAPIBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMChatModel,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "llm provider:", err)
		return -1
	}

	searcher := search.New(cfg.YouAPIKey)
	searcher.Debug = debugtrace.New("search", "", cfg.DebugSearch)

	histories := rag.NewManager(cfg.HistoryDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return 0
		default:
		}

		updateReq := tgbotapi.NewUpdate(offset)
		updateReq.Timeout = 0
		updates, err := bot.GetUpdates(updateReq)
		if err != nil {
			slog.Warn("getUpdates failed", "error", err)
			time.Sleep(pollInterval)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			handleMessage(ctx, bot, client, searcher, histories, update.Message)
		}

		time.Sleep(pollInterval)
	}
}

func handleMessage(ctx context.Context, bot *tgbotapi.BotAPI, client llmclient.ChatClient, searcher *search.Client, histories *rag.Manager, msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	history := histories.Get(chatID)

	switch msg.Text {
	case "/reset":
		history.Reset()
		send(bot, msg.Chat.ID, "conversation reset.")
		return
	case "/review":
		entries := history.GetAll()
		if len(entries) == 0 {
			send(bot, msg.Chat.ID, "(no history yet)")
			return
		}
		last := entries[len(entries)-1]
		send(bot, msg.Chat.ID, pipeline.PrettyPrint(pipeline.Review(last.Stages)))
		return
	}

	c := rag.Context{
		Inquiry: msg.Text,
		History: history.GetAll(),
		Delegates: rag.Delegates{
			// Telegram sends one complete reply, not incremental edits, so
			// it wires Enter/Leave only (a typing indicator per stage)
			// rather than Stream, per the teacher's SendSignal/ChatTyping
			// pattern.
			Enter: func(stage string) {
				if _, err := bot.Send(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
					slog.Warn("chat action failed", "error", err, "chat_id", chatID)
				}
			},
			Leave: func(stage string, fields map[string]string) {
				slog.DebugContext(ctx, "stage leave", "stage", stage, "fields", fields, "chat_id", chatID)
			},
		},
	}

	c, err := pipeline.Run(ctx, client, searcher, c)
	if err != nil {
		slog.ErrorContext(ctx, "pipeline failed", "error", err, "chat_id", chatID)
		send(bot, msg.Chat.ID, "sorry, something went wrong answering that.")
		return
	}

	history.Add(rag.HistoryEntry{
		Inquiry:    c.Inquiry,
		Thought:    c.Thought,
		Keyphrases: c.Keyphrases,
		Topic:      c.Topic,
		References: c.References,
		Answer:     c.Answer,
		Stages:     c.Events,
		DurationMs: pipeline.TotalDurationMs(c.Events),
	})
	_ = histories.Save(chatID)

	var rewriter citationBuffer
	r := citation.New(&rewriter)
	r.Push(c.Answer)
	r.Flush()
	send(bot, msg.Chat.ID, rewriter.String())
}

func send(bot *tgbotapi.BotAPI, chatID int64, text string) {
	if text == "" {
		text = "(no answer)"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bot.Send(msg); err != nil {
		slog.Error("sendMessage failed", "error", err, "chat_id", chatID)
	}
}

// citationBuffer collects a full, citation-rewritten answer in memory:
// Telegram replies are sent as one message, not incrementally streamed.
type citationBuffer struct {
	buf []byte
}

func (b *citationBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *citationBuffer) String() string { return string(b.buf) }
