package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/hashnav/internal/config"
	"github.com/vango-dev/hashnav/pkg/hashnav"
	"github.com/vango-dev/hashnav/pkg/metrics"
	"github.com/vango-dev/hashnav/pkg/route"
	"github.com/vango-dev/hashnav/pkg/wsenv"
)

//go:embed assets
var assets embed.FS

func serveCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.ConfigFileName, "path to hashnav.json")
	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "host to bind")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to bind")
	return cmd
}

func serve(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	collector := metrics.NewCollector()

	var handlerOpts []wsenv.HandlerOption
	handlerOpts = append(handlerOpts, wsenv.WithHandlerLogger(logger))
	if cfg.AllowAnyOrigin {
		handlerOpts = append(handlerOpts,
			wsenv.WithCheckOrigin(func(*http.Request) bool { return true }))
	}

	bridge := wsenv.NewHandler(func(env *wsenv.Environment) func() {
		nav := hashnav.New(env,
			hashnav.WithMarker(cfg.Marker),
			hashnav.WithLogger(logger),
		)

		nav.SubscribeBefore(func(ctx context.Context, to, from route.Snapshot) error {
			if slices.Contains(cfg.Blocked, to.Path) {
				return errors.New("route is blocked by server policy")
			}
			return nil
		})
		nav.SubscribeAfter(func(to, from route.Snapshot) {
			logger.Info("navigated", "to", to.Path, "from", from.Path)
		})

		disposeMetrics := collector.Observe(nav)
		return func() {
			disposeMetrics()
			nav.Destroy()
		}
	}, handlerOpts...)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Handle("/ws", bridge)
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/shim.js", serveAsset("assets/shim.js", "application/javascript"))
	r.Get("/", serveAsset("assets/index.html", "text/html; charset=utf-8"))

	logger.Info("demo server listening", "addr", cfg.Addr(), "marker", cfg.Marker)
	return http.ListenAndServe(cfg.Addr(), r)
}

func serveAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := assets.ReadFile(name)
		if err != nil {
			http.Error(w, fmt.Sprintf("asset %s missing", name), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	}
}
