// Command contextpilot is the headless entry point for the context and
// streaming core: it wires the panel cache engine, the persistence
// writer, the tool registry, and the streaming orchestrator into a
// runnable process and drives it from stdin, one line per user turn.
// Actual terminal rendering is out of scope (§1); this gives the core an
// exercisable end-to-end surface without building a TUI.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bigmoostache/tui-sub000/cache"
	"github.com/bigmoostache/tui-sub000/compaction"
	"github.com/bigmoostache/tui-sub000/config"
	"github.com/bigmoostache/tui-sub000/logging"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/metrics"
	"github.com/bigmoostache/tui-sub000/persist"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/stream"
	"github.com/bigmoostache/tui-sub000/tool"
	"github.com/bigmoostache/tui-sub000/tool/builtin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	stateDir := flag.String("state-dir", ".context-pilot", "directory holding persisted panel/message/config state")
	repoPath := flag.String("repo", ".", "repository root panels resolve relative paths against")
	workerID := flag.String("worker-id", "main", "this process's worker identity, used to name its state file")
	apiKeyEnv := flag.String("api-key-env", "ANTHROPIC_API_KEY", "environment variable holding the Anthropic API key")
	costCapUSD := flag.Float64("cost-cap-usd", 0, "abort autonomous continuations once estimated spend exceeds this (0 disables)")
	contextBudget := flag.Int("context-budget", 0, "token budget that triggers agentic context cleaning (0 disables)")
	cleanTrigger := flag.Float64("clean-trigger", compaction.DefaultTrigger, "fraction of context-budget that triggers cleaning")
	cleanTarget := flag.Float64("clean-target", compaction.DefaultTarget, "fraction of context-budget cleaning aims to reduce usage to")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	flag.Parse()

	log := logging.New(nil, logging.ComponentState)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiKey := os.Getenv(*apiKeyEnv)
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "%s environment variable is required\n", *apiKeyEnv)
		os.Exit(1)
	}

	layout := persist.NewLayout(*stateDir)
	cfg, err := config.Load(layout.ConfigPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	owner, err := persist.Claim(layout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to claim state directory ownership")
	}
	// cfg was loaded before Claim and is rewritten by the save tick below,
	// so it must carry this process's PID as the owner.
	cfg.OwnerPID = os.Getpid()

	st := state.New(*workerID, *repoPath, cfg.UIDCounter)

	engine := cache.New(cache.DefaultWorkers, logging.New(nil, logging.ComponentCache))
	scheduler, err := cache.NewScheduler(engine)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start cache scheduler")
	}
	if err := scheduler.Watch(*repoPath); err != nil {
		log.Warn().Err(err).Str("path", *repoPath).Msg("failed to watch repo root; file-change detection degraded")
	}
	defer func() {
		_ = scheduler.Close()
		engine.Close()
	}()

	writer := persist.NewWriter(logging.New(nil, logging.ComponentPersist))
	defer writer.Close()

	registry := tool.NewRegistry()
	if err := registry.RegisterAll(builtin.All(registry)); err != nil {
		log.Fatal().Err(err).Msg("failed to register built-in tools")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	m := metrics.New()
	scheduler.Metrics = m
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer server.Close()
	}

	orch := stream.NewOrchestrator(st, registry, client, scheduler, layout, writer, logging.New(nil, logging.ComponentStream))
	orch.CostCapUSD = *costCapUSD
	orch.Metrics = m
	if *contextBudget > 0 {
		orch.CleaningConfig = compaction.Config{
			ContextBudget: *contextBudget,
			Trigger:       *cleanTrigger,
			Target:        *cleanTarget,
		}
		if err := orch.CleaningConfig.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid context-cleaning configuration")
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc("@every 2s", func() {
		scheduler.Tick(st)
		stillOwner, err := owner.StillOwner()
		if err != nil {
			log.Error().Err(err).Msg("failed to check state ownership")
			return
		}
		if !stillOwner {
			log.Warn().Msg("another process claimed ownership; shutting down")
			cancel()
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule maintenance tick")
	}
	if _, err := sched.AddFunc("@every 5s", func() {
		cfg.UIDCounter = st.UIDCounterValue()
		cfgBytes, err := cfg.Marshal()
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal config for save tick")
			return
		}
		batch, err := persist.BuildStateBatch(layout, st, cfgBytes)
		if err != nil {
			log.Error().Err(err).Msg("failed to build save-tick batch")
			return
		}
		writer.Submit(batch)
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule save tick")
	}
	sched.Start()
	defer sched.Stop()

	log.Info().Str("state_dir", *stateDir).Str("worker_id", *workerID).Msg("contextpilot ready; reading turns from stdin")

	runREPL(ctx, orch)
}

// runREPL reads one line of stdin per turn and drives the orchestrator
// synchronously, printing the assistant's reply, per §7.1's "minimal
// headless REPL loop."
func runREPL(ctx context.Context, orch *stream.Orchestrator) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		before := len(orch.State.Messages())
		selected, err := orch.Submit(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn error: %v\n", err)
			continue
		}
		if selected != "" {
			fmt.Printf("[selected panel %s]\n", selected)
			continue
		}
		for _, msg := range orch.State.Messages()[before:] {
			if msg.Role == message.RoleAssistant && msg.Content != "" {
				fmt.Println(msg.Content)
			}
		}
	}
}
