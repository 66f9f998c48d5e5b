// Command gamal-testrunner drives the pipeline from a file-based test
// script and asserts on the streamed answers, per spec.md §6's
// test-file grammar: one "ROLE: content" directive per line, "#"
// starting an end-of-line comment. Exit code 0 on every assertion
// passing, -1 on a test failure, an unknown role, or any uncaught
// error.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gamal/internal/config"
	"gamal/internal/debugtrace"
	"gamal/internal/llmclient"
	_ "gamal/internal/llmclient/autoload" // Auto-register LLM providers
	"gamal/internal/logging"
	"gamal/internal/matcher"
	"gamal/internal/pipeline"
	"gamal/internal/rag"
	"gamal/internal/search"
)

type directive struct {
	role    string
	content string
	line    int
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gamal-testrunner <test-file>")
		return -1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return -1
	}
	logging.Setup(cfg.LogLevel)

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

	directives, err := parseFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse:", err)
		return -1
	}

	return runStory(context.Background(), client, searcher, directives, cfg.DebugFailExit)
}

// parseFile reads one directive per non-blank, non-comment-only line.
func parseFile(path string) ([]directive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []directive
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		role, content, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':' in directive %q", lineNo, line)
		}
		out = append(out, directive{
			role:    strings.TrimSpace(role),
			content: strings.TrimSpace(content),
			line:    lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// stripComment removes a trailing "# ..." end-of-line comment, honoring
// neither quoting nor escaping: '#' always starts a comment.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// runStory executes directives in order against a single conversation,
// returning the process exit code. A failed expectation is a
// TestMismatch (spec.md §7): when failExit is set (LLM_DEBUG_FAIL_EXIT),
// the first mismatch terminates the run immediately; otherwise it is
// tallied and the remaining directives still run, with the process
// exit code reflecting the final failure count.
func runStory(ctx context.Context, client llmclient.ChatClient, searcher *search.Client, directives []directive, failExit bool) int {
	history := rag.NewHistory()
	var lastContext rag.Context
	failures := 0

	for _, d := range directives {
		switch d.role {
		case "Story":
			history.Reset()
			fmt.Printf("=== %s ===\n", d.content)

		case "User":
			c := rag.Context{
				Inquiry: d.content,
				History: history.GetAll(),
				Delegates: rag.Delegates{
					Enter: func(stage string) { slog.Debug("stage enter", "stage", stage) },
					Leave: func(stage string, fields map[string]string) {
						slog.Debug("stage leave", "stage", stage, "fields", fields)
					},
				},
			}
			var err error
			lastContext, err = pipeline.Run(ctx, client, searcher, c)
			if err != nil {
				fmt.Fprintf(os.Stderr, "line %d: pipeline failed: %v\n", d.line, err)
				return -1
			}
			history.Add(rag.HistoryEntry{
				Inquiry:    lastContext.Inquiry,
				Thought:    lastContext.Thought,
				Keyphrases: lastContext.Keyphrases,
				Topic:      lastContext.Topic,
				References: lastContext.References,
				Answer:     lastContext.Answer,
				Stages:     lastContext.Events,
				DurationMs: pipeline.TotalDurationMs(lastContext.Events),
			})
			fmt.Printf("User: %s\nAssistant: %s\n", d.content, lastContext.Answer)

		case "Assistant":
			if !assertMatch(d, lastContext.Answer) {
				failures++
				if failExit {
					return -1
				}
			}

		case "Pipeline.Reason.Keyphrases":
			if !assertMatch(d, lastContext.Keyphrases) {
				failures++
				if failExit {
					return -1
				}
			}

		case "Pipeline.Reason.Topic":
			if !assertMatch(d, lastContext.Topic) {
				failures++
				if failExit {
					return -1
				}
			}

		default:
			fmt.Fprintf(os.Stderr, "line %d: unknown role %q\n", d.line, d.role)
			return -1
		}
	}

	if failures > 0 {
		fmt.Printf("FAIL (%d mismatch(es))\n", failures)
		return -1
	}
	fmt.Println("PASS")
	return 0
}

func assertMatch(d directive, target string) bool {
	expectation, err := matcher.Compile(d.content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "line %d: bad expectation: %v\n", d.line, err)
		return false
	}
	if !expectation.Matches(target) {
		fmt.Fprintf(os.Stderr, "line %d: %s did not match %q\n  got: %s\n", d.line, d.role, d.content, target)
		return false
	}
	fmt.Printf("  %s matched: %s\n", d.role, expectation.Highlight(target))
	return true
}
