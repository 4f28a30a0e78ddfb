package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/toriisent/yeezyplayer-store/cache"
	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/auth"
	"github.com/toriisent/yeezyplayer-store/core/editor"
	"github.com/toriisent/yeezyplayer-store/core/timing"
	"github.com/toriisent/yeezyplayer-store/db"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"
	"github.com/toriisent/yeezyplayer-store/repository"
	"github.com/toriisent/yeezyplayer-store/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database (gorm): %v", err)
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Release{}, &model.Track{}, &model.LikedSong{}); err != nil {
		log.Fatalf("Failed to migrate database models: %v", err)
	}

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	auth.SetSecret(cfg.JWTSecret)

	releaseRepo := repository.NewGormReleaseRepository(db.GormDB)
	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	lyricRepo := repository.NewMySQLLyricRepository()
	likedRepo := repository.NewGormLikedRepository(db.GormDB)
	userRepo := repository.NewMySQLUserRepository()

	// AI timing is optional: without an API key the editor still runs,
	// offering manual timing only.
	analyzer, err := timing.NewAnalyzer(cfg)
	if err != nil {
		if !errors.Is(err, timing.ErrNotConfigured) {
			log.Fatalf("Failed to initialize timing analyzer: %v", err)
		}
		logger.Warn("AI timing disabled: no OpenAI API key configured")
		analyzer = nil
	}
	editors := editor.NewManager(lyricRepo, analyzer)

	apiHandler := NewAPIHandler(releaseRepo, trackRepo, lyricRepo, likedRepo, userRepo, editors, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range, "+sessionHeader)
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, "+sessionHeader)
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// User authentication
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Public catalog
	router.HandleFunc("/api/releases", apiHandler.GetReleasesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.GetReleaseHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", apiHandler.SearchHandler).Methods(http.MethodGet)

	// Lyrics
	router.HandleFunc("/api/tracks/{track_id}/lyrics", apiHandler.GetLyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{track_id}/lyrics/position", apiHandler.ResolveLyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{track_id}/lyrics/sync", apiHandler.LyricSyncHandler).Methods(http.MethodGet)

	// Liked songs, keyed on the listener session header. Auth is
	// optional: a logged-in liker additionally gets their user id
	// recorded.
	router.HandleFunc("/api/tracks/{track_id}/like", apiHandler.OptionalAuthMiddleware(apiHandler.ToggleLikeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/liked", apiHandler.OptionalAuthMiddleware(apiHandler.GetLikedHandler)).Methods(http.MethodGet)

	// Admin catalog management
	router.HandleFunc("/api/releases", apiHandler.AdminMiddleware(apiHandler.CreateReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}", apiHandler.AdminMiddleware(apiHandler.UpdateReleaseHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/releases/{id}", apiHandler.AdminMiddleware(apiHandler.DeleteReleaseHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/releases/{id}/featured", apiHandler.AdminMiddleware(apiHandler.ToggleFeaturedHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/releases/{id}/tracks", apiHandler.AdminMiddleware(apiHandler.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/tracks/reorder", apiHandler.AdminMiddleware(apiHandler.ReorderTracksHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AdminMiddleware(apiHandler.UpdateTrackHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AdminMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/upload/audio", apiHandler.AdminMiddleware(apiHandler.UploadAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/upload/cover", apiHandler.AdminMiddleware(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{track_id}/lyrics", apiHandler.AdminMiddleware(apiHandler.PutLyricsHandler)).Methods(http.MethodPut)

	// Lyric editor sessions
	router.HandleFunc("/api/editor", apiHandler.AdminMiddleware(apiHandler.OpenEditorHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}", apiHandler.AdminMiddleware(apiHandler.GetEditorHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/editor/{session}", apiHandler.AdminMiddleware(apiHandler.CloseEditorHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/editor/{session}/mode", apiHandler.AdminMiddleware(apiHandler.SetEditorModeHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/editor/{session}/lines", apiHandler.AdminMiddleware(apiHandler.EditorAddLineHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/lines/{line}", apiHandler.AdminMiddleware(apiHandler.EditorSetLineTimeHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/editor/{session}/lines/{line}", apiHandler.AdminMiddleware(apiHandler.EditorRemoveLineHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/editor/{session}/lines/{line}/words", apiHandler.AdminMiddleware(apiHandler.EditorAddWordHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/lines/{line}/words/{word}", apiHandler.AdminMiddleware(apiHandler.EditorUpdateWordHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/editor/{session}/lines/{line}/words/{word}", apiHandler.AdminMiddleware(apiHandler.EditorRemoveWordHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/editor/{session}/manual-timing", apiHandler.AdminMiddleware(apiHandler.EditorManualTimingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/ai-timing", apiHandler.AdminMiddleware(apiHandler.EditorAnalyzeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/save", apiHandler.AdminMiddleware(apiHandler.EditorSaveHandler)).Methods(http.MethodPost)

	// Serve audio and cover art straight from MinIO
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := storage.GetObject(ctx, objectPath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasPrefix(objectPath, "covers/") {
			contentType = "image/jpeg"
		} else if strings.HasPrefix(objectPath, "audio/") {
			contentType = "audio/mpeg"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000")

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("error serving file from MinIO", logger.String("object", objectPath), logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Catalog via /api/releases, lyrics via /api/tracks/{track_id}/lyrics")
		log.Println("Lyric sync websocket at /api/tracks/{track_id}/lyrics/sync")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
