package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nconklindev/datasweeper/internal/config"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/ui"
	"github.com/nconklindev/datasweeper/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage:
  datasweeper                 interactive terminal UI
  datasweeper serve           HTTP server
  datasweeper convert [flags] file...
  datasweeper --version
`

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("datasweeper %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	// Overload so a local .env wins over the shell environment
	envLoaded := godotenv.Overload() == nil

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		os.Exit(runTUI(cfg))
	case "serve":
		os.Exit(runServe(cfg, envLoaded))
	case "convert":
		os.Exit(runConvert(cfg, os.Args[2:], os.Stdout, os.Stderr))
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

// runTUI owns the terminal, so logs only go to LOG_FILE when one is set.
func runTUI(cfg *config.Config) int {
	var out io.Writer = io.Discard
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	closeLogs := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
		Output: out,
	})
	defer closeLogs()

	p := tea.NewProgram(ui.InitialModel(cfg.Preview), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	return 0
}

func runServe(cfg *config.Config, envLoaded bool) int {
	closeLogs := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
	})
	defer closeLogs()

	if envLoaded {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_files", cfg.Upload.MaxFiles,
		"seq", cfg.Logging.SeqURL != "",
	)

	server := web.NewServer(cfg)
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		return 1
	}
	<-done

	slog.Info("server stopped")
	return 0
}
