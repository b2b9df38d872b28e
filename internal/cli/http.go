package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/httpapi"
	"github.com/ironsheep/photo-sharpness-mcp/internal/scorecache"
)

func newHTTPCmd(a *app) *cobra.Command {
	var (
		addr      string
		redisAddr string
	)

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the sharpness API over HTTP",
		Long: `Serve POST /api/v1/sharpness for upload frontends, plus the assessment
history endpoints when a ledger is configured. Scores are cached by content
hash in Redis when --redis is set, otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr = addr
			}
			if cmd.Flags().Changed("redis") {
				a.cfg.RedisAddr = redisAddr
			}
			return a.runHTTP(cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from PHOTO_SHARPNESS_HTTP_ADDR or :8080)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the score cache; empty uses memory")
	return cmd
}

func (a *app) runHTTP(cmd *cobra.Command) error {
	ctx := cmd.Context()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var cache scorecache.Cache = scorecache.NewMemoryCache()
	if a.cfg.RedisAddr != "" {
		client, err := scorecache.Dial(ctx, a.cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.RedisAddr, err)
		}
		defer client.Close()
		cache = scorecache.NewRedisCache(client)
	}

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(httpapi.Options{
		Threshold:      a.cfg.Threshold,
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
		CacheTTL:       a.cfg.CacheTTL,
		Cache:          cache,
		Store:          store,
		Logger:         a.logger,
	})

	server := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("starting HTTP API",
		zap.String("addr", a.cfg.HTTPAddr),
		zap.Bool("redis", a.cfg.RedisAddr != ""),
		zap.Bool("ledger", store != nil))
	return httpapi.Serve(ctx, server, nil, httpapi.DefaultShutdownTimeout, a.logger)
}
