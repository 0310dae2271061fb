/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs one reasoning session against a local git worktree.
//
// The prompt is taken from the command line:
//
//	REASONER_PROVIDER=gemini reasoner "summarize the open changes in this repo"
//
// Streamed model text is printed as it arrives, followed by a markdown table
// of the recorded steps.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"

	"chainguard.dev/reasoner/agents/agenttrace"
	"chainguard.dev/reasoner/agents/intent"
	"chainguard.dev/reasoner/agents/intent/modelclassifier"
	"chainguard.dev/reasoner/agents/metrics"
	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/reasoning"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
	"chainguard.dev/reasoner/agents/toolcall/worktree"
)

type config struct {
	// Provider selects the model backend: claude, gemini or openai.
	Provider string `env:"REASONER_PROVIDER,default=claude"`
	Model    string `env:"REASONER_MODEL"`

	// ProjectID and Region route claude and gemini through Vertex AI when set.
	ProjectID string `env:"GOOGLE_CLOUD_PROJECT"`
	Region    string `env:"GOOGLE_CLOUD_LOCATION,default=us-east5"`

	// ConfigFile is an optional YAML file overlaid on the engine settings
	// read from the environment.
	ConfigFile string `env:"REASONER_CONFIG"`

	SystemPrompt string `env:"REASONER_SYSTEM_PROMPT"`
	Repo         string `env:"REASONER_REPO,default=."`

	// Classifier is keyword or model.
	Classifier string `env:"REASONER_CLASSIFIER,default=keyword"`

	// Store is memory, sqlite, postgres, mysql or gcs.
	Store     string `env:"REASONER_STORE,default=memory"`
	StoreDSN  string `env:"REASONER_STORE_DSN"`
	GCSBucket string `env:"REASONER_GCS_BUCKET"`
	GCSPrefix string `env:"REASONER_GCS_PREFIX,default=sessions"`

	// ResumeID continues a persisted session instead of starting one.
	ResumeID string `env:"REASONER_RESUME_ID"`

	// MetricsPort serves Prometheus metrics. 0 disables the listener.
	MetricsPort int `env:"METRICS_PORT,default=2112"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = cliSession(ctx)

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}
	engineCfg, err := loadEngineConfig(ctx, cfg.ConfigFile)
	if err != nil {
		clog.FatalContextf(ctx, "loading engine config: %v", err)
	}

	prompt := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if prompt == "" && cfg.ResumeID == "" {
		clog.FatalContextf(ctx, "usage: %s <prompt>", os.Args[0])
	}

	st, err := run(ctx, cfg, engineCfg, prompt)
	fmt.Fprintln(os.Stdout)
	if st != nil {
		if rerr := writeReport(os.Stdout, st); rerr != nil {
			clog.ErrorContextf(ctx, "writing report: %v", rerr)
		}
	}
	if err != nil {
		clog.FatalContextf(ctx, "session failed: %v", err)
	}
	if st.Status != session.StatusCompleted {
		clog.WarnContextf(ctx, "session %s ended with status %s", st.ID, st.Status)
		os.Exit(2)
	}
}

// cliSession tags traces and metrics produced by this process as the first
// turn of a command line session.
func cliSession(ctx context.Context) context.Context {
	return agenttrace.WithSessionContext(ctx, agenttrace.SessionContext{Caller: "cli", Turn: 1})
}

// run wires the engine and executes or resumes one session.
func run(ctx context.Context, cfg config, engineCfg reasoning.Config, prompt string) (*session.State, error) {
	m, err := newModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s model: %w", cfg.Provider, err)
	}

	tree, err := worktree.Open(cfg.Repo)
	if err != nil {
		return nil, err
	}
	tools, err := tree.Tools()
	if err != nil {
		return nil, fmt.Errorf("building tools: %w", err)
	}
	registry, err := toolcall.NewRegistry(tools...)
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	classifier, err := newClassifier(cfg.Classifier, m)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	defer closeStore()

	prom := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	if cfg.MetricsPort > 0 {
		stop := serveMetrics(ctx, cfg.MetricsPort)
		defer stop()
	}

	engine, err := reasoning.New(m, registry, classifier, engineCfg,
		reasoning.WithPersistence(store),
		reasoning.WithMetrics(prom),
		reasoning.WithStreamSink(reasoning.StreamSinkFunc(func(_ context.Context, _, text string) error {
			_, err := fmt.Fprint(os.Stdout, text)
			return err
		})),
		reasoning.WithEventSink(reasoning.EventSinkFunc(func(ctx context.Context, ev reasoning.Event) error {
			logEvent(ctx, ev)
			return nil
		})),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	if cfg.ResumeID != "" {
		return engine.Resume(ctx, cfg.ResumeID)
	}
	var history session.History
	if cfg.SystemPrompt != "" {
		history = append(history, session.SystemMessage(cfg.SystemPrompt))
	}
	history = append(history, session.UserMessage(prompt))
	return engine.Process(ctx, history)
}

func newClassifier(kind string, m model.Interface) (intent.Classifier, error) {
	switch kind {
	case "keyword":
		return intent.NewKeywordClassifier(), nil
	case "model":
		return modelclassifier.New(m)
	default:
		return nil, fmt.Errorf("unknown classifier %q (supported: keyword, model)", kind)
	}
}

func serveMetrics(ctx context.Context, port int) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		clog.InfoContextf(ctx, "Serving metrics on port %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.ErrorContextf(ctx, "metrics server failed: %v", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func logEvent(ctx context.Context, ev reasoning.Event) {
	log := clog.FromContext(ctx).With("session", ev.SessionID, "iteration", ev.Iteration, "kind", ev.Kind)
	switch ev.Kind {
	case reasoning.EventToolExecutionCompleted:
		log.Info("Tool finished", "tool", ev.Tool, "call", ev.CallID, "success", ev.Success, "duration", ev.Duration)
	case reasoning.EventDecisionMade:
		log.Info("Decision", "intent", ev.Intent, "action", ev.Action)
	case reasoning.EventErrorOccurred:
		log.Warn("Engine error", "error", ev.Error)
	case reasoning.EventSessionCompleted:
		log.Info("Session completed", "status", ev.Status)
	default:
		log.Debug("Event")
	}
}
