// Package cli implements the sidekick CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sidekick/internal/audit"
	"sidekick/internal/config"
	"sidekick/internal/embedding"
	"sidekick/internal/intent"
	"sidekick/internal/kvstore"
	"sidekick/internal/logging"
	"sidekick/internal/memory"
	"sidekick/internal/model"
	"sidekick/internal/moderation"
	"sidekick/internal/planner"
	"sidekick/internal/retrieval"
	"sidekick/internal/router"
	"sidekick/internal/tools"
)

var (
	dbPath  string
	cfgPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "sidekick",
	Short: "Persona-routed assistant with planning, tools, and retrieval",
	Long:  "A conversational assistant CLI: intent routing, bounded planning with checkpoints, guardrailed tools, hybrid retrieval. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $SIDEKICK_DB or ~/.sidekick/sidekick.db)")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file path (YAML)")
}

func loadConfig() config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

// app is the assembled service stack behind every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	auditLog *audit.Log
	store    *kvstore.Store
	registry *tools.Registry
	router   *router.Router
	rag      *retrieval.Store
	memory   *memory.Store
}

func buildApp() *app {
	cfg := loadConfig()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		exitErr("init logger", err)
	}

	auditLog := audit.New(cfg.AuditCapacity, logger)

	store, err := kvstore.Open(cfg.DBPath,
		kvstore.WithAudit(auditLog), kvstore.WithLogger(logger))
	if err != nil {
		exitErr("open store", err)
	}

	registry := tools.DefaultRegistry(store, cfg.DocsRoot, auditLog, logger)
	engine := planner.New(store, registry, logger)

	rt := router.New(intent.New(logger), store, moderation.NewKeywordGate(), logger)
	rt.RegisterHandler(model.IntentPlanner, engine)

	embedder := embedding.New(cfg.Embedding)
	if os.Getenv("SIDEKICK_EMBED_PROVIDER") != "" {
		embedder = embedding.NewFromEnv()
	}
	rag, err := retrieval.New(store, embedder, logger)
	if err != nil {
		exitErr("init retrieval", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		auditLog: auditLog,
		store:    store,
		registry: registry,
		router:   rt,
		rag:      rag,
		memory:   memory.New(store, embedder, logger),
	}
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
