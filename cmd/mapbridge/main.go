package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"

	"github.com/shenikar/civic_issue_map/internal/client"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/feed"
	v1 "github.com/shenikar/civic_issue_map/internal/handler/http/v1"
	"github.com/shenikar/civic_issue_map/internal/mapsync"
	"github.com/shenikar/civic_issue_map/internal/mapview"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/pkg/logger"
	"github.com/sirupsen/logrus"
)

type options struct {
	apiURL   string
	port     string
	mode     string
	interval time.Duration
	logLevel string
	heatmap  bool
	hide     []string
	origins  []string
}

func parseFlags(cfg *config.ClientConfig) options {
	var opts options
	flags := flag.NewFlagSet("mapbridge", flag.ExitOnError)
	flags.StringVar(&opts.apiURL, "api", cfg.APIBaseURL, "base URL of the issue API")
	flags.StringVar(&opts.port, "port", cfg.BridgePort, "port to serve the map bridge on")
	flags.StringVar(&opts.mode, "mode", cfg.FeedMode, "feed strategy: poll or stream")
	flags.DurationVar(&opts.interval, "interval", cfg.FeedPollInterval, "poll interval for --mode=poll")
	flags.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level")
	flags.BoolVar(&opts.heatmap, "heatmap", false, "start with the heatmap layer enabled")
	flags.StringSliceVar(&opts.hide, "hide", nil, "categories hidden on start (comma separated)")
	flags.StringSliceVar(&opts.origins, "cors-origin", nil, "allowed browser origins (all when empty)")
	_ = flags.Parse(os.Args[1:])
	return opts
}

func initialFilters(hide []string) (models.FilterState, error) {
	filters := models.DefaultFilters()
	for _, name := range hide {
		category, ok := models.ParseCategory(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		filters[category] = false
	}
	return filters, nil
}

func newStrategy(opts options, api *client.Client) (feed.Strategy, error) {
	if err := config.ValidateMode(opts.mode); err != nil {
		return nil, err
	}
	if opts.mode == config.FeedModeStream {
		return feed.Streaming(api, feed.DefaultBackoff), nil
	}
	return feed.Polling(api, opts.interval), nil
}

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	opts := parseFlags(cfg)

	log := logger.New(opts.logLevel)

	filters, err := initialFilters(opts.hide)
	if err != nil {
		log.Fatalf("Invalid --hide: %v", err)
	}

	api := client.New(opts.apiURL, cfg.RequestTimeout, client.WithLogger(log))
	strategy, err := newStrategy(opts, api)
	if err != nil {
		log.Fatalf("Invalid --mode: %v", err)
	}

	// Поверхность считается загруженной, когда мост начал принимать запросы
	surface := mapsync.NewMemorySurface(false)
	bridge := mapview.NewServer(surface, log)
	bridge.Sync().Update(nil, filters, opts.heatmap)

	issueFeed := feed.New(strategy, log)
	issueFeed.Subscribe(bridge.Sync().SetIssues)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), v1.CORSMiddleware(opts.origins))
	bridge.RegisterRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := net.Listen("tcp", ":"+opts.port)
	if err != nil {
		log.Fatalf("Failed to listen on port %s: %v", opts.port, err)
	}
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error serving map bridge: %v", err)
		}
	}()
	surface.LoadStyle()
	log.WithFields(logrus.Fields{"port": opts.port, "api": opts.apiURL}).Info("Map bridge started")

	if err := issueFeed.Start(ctx); err != nil {
		log.Fatalf("Failed to start issue feed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, stopping map bridge...")

	issueFeed.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Map bridge forced to shutdown: %v", err)
	}

	log.Info("Map bridge stopped")
}
