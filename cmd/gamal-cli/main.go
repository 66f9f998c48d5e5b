// Command gamal-cli is the terminal front-end: a REPL prompting ">> ",
// running the full pipeline per line and streaming the cited answer to
// stdout as it arrives.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

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

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return -1
	}

	logging.Setup(cfg.LogLevel)
	logging.PrintBanner()

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	history := rag.NewHistory()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print(">> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Print(">> ")
			continue
		case "!reset", "/reset":
			history.Reset()
			fmt.Println("conversation reset.")
			fmt.Print(">> ")
			continue
		case "!review", "/review":
			printReview(history)
			fmt.Print(">> ")
			continue
		}

		if err := runInquiry(ctx, client, searcher, history, line); err != nil {
			fmt.Fprintln(os.Stderr, "\nerror:", err)
		}
		fmt.Print(">> ")
	}

	return 0
}

func runInquiry(ctx context.Context, client llmclient.ChatClient, searcher *search.Client, history *rag.History, inquiry string) error {
	rewriter := citation.New(os.Stdout)
	c := rag.Context{
		Inquiry: inquiry,
		History: history.GetAll(),
		Delegates: rag.Delegates{
			Enter:  func(stage string) { slog.Debug("stage enter", "stage", stage) },
			Leave:  func(stage string, fields map[string]string) { slog.Debug("stage leave", "stage", stage, "fields", fields) },
			Stream: func(delta string) { rewriter.Push(delta) },
		},
	}

	c, err := pipeline.Run(ctx, client, searcher, c)
	rewriter.Flush()
	fmt.Println()
	if err != nil {
		return err
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
	return nil
}

func printReview(history *rag.History) {
	entries := history.GetAll()
	if len(entries) == 0 {
		fmt.Println("(no history yet)")
		return
	}
	last := entries[len(entries)-1]
	fmt.Print(pipeline.PrettyPrint(pipeline.Review(last.Stages)))
}
