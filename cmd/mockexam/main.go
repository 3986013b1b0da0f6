package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/lchuang/mockexam/internal/handler"
	appI18n "github.com/lchuang/mockexam/internal/i18n"
	"github.com/lchuang/mockexam/internal/llm"
	"github.com/lchuang/mockexam/internal/storage"
	"github.com/lchuang/mockexam/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockexam",
		Short: "Practice exam server backed by spreadsheet question banks",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `mockexam --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mockexam.db", "SQLite database path")
	f.String("s3-endpoint", "localhost:9000", "Object store endpoint")
	f.String("s3-access-key", "", "Object store access key")
	f.String("s3-secret-key", "", "Object store secret key")
	f.Bool("s3-ssl", false, "Use TLS for the object store")
	f.String("s3-bucket", "mockexam", "Bucket holding question banks")
	f.String("banks-dir", "banks", "Key prefix for bank files")
	f.String("pointer-key", "bank_pointer.json", "Key of the current-bank pointer object")
	f.String("category", "", "Bank category served by this instance")
	f.String("default-bank", "", "Bank key used when the pointer has no entry")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables AI features)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "Default language (en, zh-TW)")
	f.Duration("paper-ttl", 2*time.Hour, "How long an ungraded paper stays addressable")
	f.String("admin-password", "", "Admin password (or set MOCKEXAM_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all graded attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mockexam.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MOCKEXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mockexam")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mockexam")
	v.AddConfigPath("/etc/mockexam")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	adminPassword := v.GetString("admin-password")
	if adminPassword == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or MOCKEXAM_ADMIN_PASSWORD env var")
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	banks, err := storage.New(ctx, storage.Config{
		Endpoint:   v.GetString("s3-endpoint"),
		AccessKey:  v.GetString("s3-access-key"),
		SecretKey:  v.GetString("s3-secret-key"),
		UseSSL:     v.GetBool("s3-ssl"),
		Bucket:     v.GetString("s3-bucket"),
		BanksDir:   v.GetString("banks-dir"),
		PointerKey: v.GetString("pointer-key"),
	})
	if err != nil {
		return fmt.Errorf("connect bank storage: %w", err)
	}

	// The AI endpoints are optional; a missing or unreachable LLM degrades
	// them to 503 instead of blocking the exam flow.
	var llmClient *llm.Client
	if url := v.GetString("llm-url"); url != "" {
		llmClient = llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := llmClient.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed, AI features disabled", "url", url, "error", err)
			llmClient = nil
		} else {
			slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		}
	}

	h := handler.New(banks, db, llmClient, handler.Config{
		Category:          v.GetString("category"),
		DefaultBankPath:   v.GetString("default-bank"),
		AdminPasswordHash: string(adminHash),
		PaperTTL:          v.GetDuration("paper-ttl"),
	})

	// A missing bank is not fatal; the API answers 503 until an admin
	// uploads one or reload succeeds.
	if err := h.LoadBank(ctx); err != nil {
		slog.Warn("initial bank load failed", "error", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"bucket", v.GetString("s3-bucket"),
		"category", v.GetString("category"),
		"lang", lang,
		"llm", llmClient != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllAttempts()
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
