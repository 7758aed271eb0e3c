package main

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/config"
	"github.com/yourusername/idgate/internal/session"
)

// setupStore は設定に応じたセッションストアと、その後始末用の関数を返します。
func setupStore(cfg *config.Config, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
		}

		closeFn := func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("Redis クライアントのクローズに失敗しました", zap.Error(err))
			}
		}
		return session.NewRedisStore(rdb, cfg.SessionRedisKey, logger), closeFn, nil
	case config.StoreFile:
		logger.Info("セッションをファイルに保存します", zap.String("path", cfg.SessionFile))
		return session.NewFileStore(cfg.SessionFile, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store: %s", cfg.SessionStore)
	}
}
