package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/ingest"
	"github.com/toriisent/yeezyplayer-store/db"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/repository"
	"github.com/toriisent/yeezyplayer-store/storage"

	"github.com/spf13/cobra"
)

var importReleaseID string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Watch a local directory and ingest dropped audio files",
	Long:  `Watch the configured import directory; every new audio file is uploaded to object storage and registered as a track under the given release.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseGormDB()

		trackRepo := repository.NewGormTrackRepository(db.GormDB)
		watcher, err := ingest.NewWatcher(cfg, trackRepo, importReleaseID)
		if err != nil {
			log.Fatalf("Failed to create import watcher: %v", err)
		}
		defer watcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		go watcher.Run(ctx)
		logger.Info("import watcher started", logger.String("dir", cfg.ImportDir))

		<-stop
		logger.Info("import watcher stopping")
	},
}

func init() {
	importCmd.Flags().StringVar(&importReleaseID, "release", "", "release id to attach imported tracks to")
	importCmd.MarkFlagRequired("release")
	rootCmd.AddCommand(importCmd)
}
