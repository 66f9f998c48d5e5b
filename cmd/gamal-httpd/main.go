// Command gamal-httpd is the HTTP front-end: GET /health, GET / and
// GET /index.html serve a static page; GET /chat streams a cited
// answer as text/plain; GET /ws upgrades to a WebSocket carrying the
// same stream as JSON frames, for browser clients that want
// incremental rendering without chunked-transfer plumbing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

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

const indexHTML = `<!DOCTYPE html>
<html><head><title>gamal</title></head>
<body>
<h1>gamal</h1>
<p>GET /chat?&lt;inquiry&gt; for a streamed, cited answer.</p>
</body></html>`

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type server struct {
	client   llmclient.ChatClient
	searcher *search.Client
	history  *rag.Manager
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return -1
	}
	if cfg.HTTPPort == "" {
		fmt.Fprintln(os.Stderr, "GAMAL_HTTP_PORT is required to run gamal-httpd")
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

	s := &server{
		client:   client,
		searcher: searcher,
		history:  rag.NewManager(cfg.HistoryDir),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWS)

	addr := ":" + cfg.HTTPPort
	slog.Info("gamal-httpd listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		return -1
	}
	return 0
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleChat streams the cited answer as text/plain to a single
// request's ResponseWriter, flushing after every delta so the client
// observes it incrementally rather than buffered whole.
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	inquiry, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil || inquiry == "" {
		http.Error(w, "missing inquiry", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)

	history := s.history.Get("http_global")

	if handled := s.handleCommand(w, history, inquiry); handled {
		return
	}

	rewriter := citation.New(w)
	c := rag.Context{
		Inquiry: inquiry,
		History: history.GetAll(),
		Delegates: rag.Delegates{
			Enter: func(stage string) { slog.DebugContext(r.Context(), "stage enter", "stage", stage) },
			Leave: func(stage string, fields map[string]string) {
				slog.DebugContext(r.Context(), "stage leave", "stage", stage, "fields", fields)
			},
			Stream: func(delta string) {
				rewriter.Push(delta)
				if flusher != nil {
					flusher.Flush()
				}
			},
		},
	}

	c, err = pipeline.Run(r.Context(), s.client, s.searcher, c)
	rewriter.Flush()
	if flusher != nil {
		flusher.Flush()
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "pipeline failed", "error", err)
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
	_ = s.history.Save("http_global")
}

// handleCommand intercepts the /reset and /review in-band commands
// carried inside the inquiry string, per the spec's HTTP front-end
// contract.
func (s *server) handleCommand(w http.ResponseWriter, history *rag.History, inquiry string) bool {
	switch strings.TrimSpace(inquiry) {
	case "/reset":
		history.Reset()
		fmt.Fprint(w, "conversation reset.")
		return true
	case "/review":
		entries := history.GetAll()
		if len(entries) == 0 {
			fmt.Fprint(w, "(no history yet)")
			return true
		}
		last := entries[len(entries)-1]
		fmt.Fprint(w, pipeline.PrettyPrint(pipeline.Review(last.Stages)))
		return true
	}
	return false
}

// handleWS upgrades to a WebSocket and runs one pipeline invocation per
// incoming text message, writing each delta as its own JSON frame.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	history := s.history.Get("ws_" + r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		inquiry := strings.TrimSpace(string(msg))
		if inquiry == "" {
			continue
		}

		c := rag.Context{
			Inquiry: inquiry,
			History: history.GetAll(),
			Delegates: rag.Delegates{
				Enter: func(stage string) {
					writeMu.Lock()
					defer writeMu.Unlock()
					conn.WriteJSON(map[string]string{"type": "enter", "stage": stage})
				},
				Leave: func(stage string, fields map[string]string) {
					writeMu.Lock()
					defer writeMu.Unlock()
					conn.WriteJSON(map[string]any{"type": "leave", "stage": stage, "fields": fields})
				},
				Stream: func(delta string) {
					writeMu.Lock()
					defer writeMu.Unlock()
					conn.WriteJSON(map[string]string{"type": "delta", "text": delta})
				},
			},
		}

		c, err = pipeline.Run(context.Background(), s.client, s.searcher, c)
		if err != nil {
			writeMu.Lock()
			conn.WriteJSON(map[string]string{"type": "error", "text": err.Error()})
			writeMu.Unlock()
			continue
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

		writeMu.Lock()
		conn.WriteJSON(map[string]string{"type": "done"})
		writeMu.Unlock()
	}
}
