package cmd

import (
	"errors"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/models"
	"github.com/cppla/htmlfilter/routes"
	"github.com/cppla/htmlfilter/utils"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if port != "" {
				cfg.AppPort = port
				config.Set(cfg)
			}
			return runServe(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides APP_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, cfg config.AppConfig) error {
	var db *gorm.DB
	conn, err := config.InitDatabase(&models.FilterAudit{})
	switch {
	case errors.Is(err, config.ErrDatabaseDisabled):
		utils.Sugar.Info("database not configured, audit trail disabled")
	case err != nil:
		return err
	default:
		db = conn
	}

	cache, err := utils.NewResultCache(cfg.LRUSize, utils.GetRedis(), time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		return err
	}

	handler := gzhttp.GzipHandler(routes.SetupRouter(db, cache))
	utils.Sugar.Infof("starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(cmd.Context(), ":"+cfg.AppPort, handler)
}
