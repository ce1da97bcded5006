package main

import (
	"fmt"
	"os"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/totegamma/tentd/internal/config"
	"github.com/totegamma/tentd/internal/infra/database"
	"github.com/totegamma/tentd/internal/logging"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "tentd",
		Short:         "tent protocol server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(
		serveCmd(),
		newUserCmd(),
		deleteUserCmd(),
		setProfileCmd(),
		cleanCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// bootstrap loads the config, builds the logger and opens the database.
func bootstrap() (config.Config, *zap.Logger, *gorm.DB, error) {
	conf, err := loadConfig()
	if err != nil {
		return conf, nil, nil, errors.Wrap(err, "failed to load config")
	}

	logger, err := logging.New(conf.Server.LogLevel, conf.Server.LogFormat)
	if err != nil {
		return conf, nil, nil, err
	}
	zap.ReplaceGlobals(logger)

	db, err := database.NewPostgres(conf.Server.PostgresDsn, logger)
	if err != nil {
		return conf, logger, nil, errors.Wrap(err, "failed to connect database")
	}
	if err := database.MigratePostgres(db); err != nil {
		return conf, logger, nil, errors.Wrap(err, "failed to migrate database")
	}
	return conf, logger, db, nil
}

// profileCache returns nil when memcached is not configured.
func profileCache(conf config.Config) *memcache.Client {
	if conf.Server.MemcachedAddr == "" {
		return nil
	}
	return database.NewMemcached(conf.Server.MemcachedAddr, conf.Federation.RequestTimeout)
}
