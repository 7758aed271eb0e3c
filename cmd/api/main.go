// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/auth"
	"github.com/yourusername/idgate/internal/config"
	"github.com/yourusername/idgate/internal/jobs"
	"github.com/yourusername/idgate/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.GinMode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	store, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		logger.Fatal("セッションストアの初期化に失敗しました", zap.Error(err))
	}
	defer closeStore()

	authManager := auth.NewManager(cfg, store, logger)

	sweeper, err := jobs.NewRunner(cfg, authManager, logger)
	if err != nil {
		logger.Fatal("定期削除の初期化に失敗しました", zap.Error(err))
	}
	if sweeper != nil {
		if err := sweeper.Start(); err != nil {
			logger.Fatal("定期削除の起動に失敗しました", zap.Error(err))
		}
	}

	router := newRouter(cfg, logger, authManager)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting API server",
			zap.String("addr", addr),
			zap.String("mode", cfg.GinMode),
			zap.String("store", cfg.SessionStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("サーバーの停止に失敗しました", zap.Error(err))
	}
	if sweeper != nil {
		if err := sweeper.Shutdown(ctx); err != nil {
			logger.Error("定期削除の停止に失敗しました", zap.Error(err))
		}
	}
}

// newRouter はミドルウェアとルーティングを設定したルーターを返します。
func newRouter(cfg *config.Config, logger *zap.Logger, authManager *auth.Manager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(logger))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	corsConfig.AllowOrigins = origins
	// クッキーでセッションを運ぶため資格情報付きリクエストを許可
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, authManager)
	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "idgate-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager) {
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	authManager.RegisterRoutes(api)
}
