package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/grimoire/internal/api"
	"github.com/kalambet/grimoire/internal/config"
	"github.com/kalambet/grimoire/internal/identify"
	"github.com/kalambet/grimoire/internal/storage"
	"github.com/kalambet/grimoire/internal/vision"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Run the grimoire server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return showStatus(cmd.Context(), client, cmd.OutOrStdout())
	},
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "grimoire version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)})))

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	vc, err := vision.New(ctx, vision.Config{
		APIKey:            cfg.Vision.APIKey,
		Model:             cfg.Vision.Model,
		RequestsPerMinute: cfg.Vision.RequestsPerMinute,
	})
	if err != nil {
		return fmt.Errorf("creating vision client: %w", err)
	}
	if !vc.Configured() {
		printWarning("no Gemini API key configured; identification is disabled (set GRIMOIRE_GEMINI_API_KEY)")
	}

	svc := identify.NewService(vc, store, identify.Options{
		Timeout:      cfg.Vision.Timeout,
		RequireOwner: cfg.API.RequireOwner,
		Model:        cfg.Vision.Model,
	})

	handler := api.NewHandler(api.Deps{
		Store:          store,
		Identify:       svc,
		Vision:         vc,
		Token:          cfg.Server.APIToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        version,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("grimoire listening", "addr", addr, "model", cfg.Vision.Model, "vision_configured", vc.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Server.MCPEnabled {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:    store,
			Identify: svc,
			Version:  version,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

type serverStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Vision  struct {
		Configured bool   `json:"configured"`
		Model      string `json:"model"`
	} `json:"vision"`
	Storage struct {
		Reachable bool   `json:"reachable"`
		Crystals  int    `json:"crystals"`
		Error     string `json:"error"`
	} `json:"storage"`
	Colors []string `json:"colors"`
}

func showStatus(ctx context.Context, client *apiClient, w io.Writer) error {
	resp, err := client.get(ctx, "/api/status")
	if err != nil {
		return err
	}

	var st serverStatus
	if err := decodeJSON(resp, &st); err != nil {
		return err
	}

	printStatus(w, "Server", "%s (version %s)", st.Status, st.Version)
	if st.Vision.Configured {
		printStatus(w, "Vision", "configured, model %s", st.Vision.Model)
	} else {
		printStatus(w, "Vision", "%s", colorize(colorYellow, "not configured"))
	}
	if st.Storage.Reachable {
		printStatus(w, "Storage", "reachable, %d crystals", st.Storage.Crystals)
	} else {
		printStatus(w, "Storage", "%s", colorize(colorRed, "unreachable: "+st.Storage.Error))
	}
	printStatus(w, "Colors", "%d known", len(st.Colors))
	return nil
}
