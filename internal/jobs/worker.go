// Package jobs は期限切れセッションの定期削除を提供します。
//
// 通常はプロセス内の cron で実行し、SWEEP_QUEUE_REDIS_URL が設定されている場合は
// Asynq の定期タスクとして実行します（複数インスタンスでも1回だけ動かすため）。
package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/config"
)

const sweepTimeout = 30 * time.Second

// NewRunner は設定に応じた Runner を返します。スケジュールが空なら nil を返します。
func NewRunner(cfg *config.Config, sweeper Sweeper, logger *zap.Logger) (Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if cfg.SweepSchedule == "" {
		return nil, nil
	}
	if cfg.SweepQueueRedisURL != "" {
		r, err := NewQueueRunner(cfg.SweepQueueRedisURL, cfg.SweepSchedule, sweeper, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	r, err := NewCronRunner(cfg.SweepSchedule, sweeper, logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// runSweep は1回分の削除処理を実行し、結果をログに残します。
func runSweep(ctx context.Context, sweeper Sweeper, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	removed, err := sweeper.SweepExpired(ctx)
	if err != nil {
		logger.Error("期限切れセッションの削除に失敗しました", zap.Error(err))
		return err
	}
	logger.Debug("期限切れセッションの削除が完了しました",
		zap.Int("removed", removed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
