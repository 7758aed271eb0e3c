package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronRunner はプロセス内で定期的に削除処理を実行します。
type CronRunner struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
}

// NewCronRunner は spec（cron 形式または @hourly などの記述子）で CronRunner を作成します。
func NewCronRunner(spec string, sweeper Sweeper, logger *zap.Logger) (*CronRunner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CronRunner{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start はスケジューラーをバックグラウンドで起動します。
func (r *CronRunner) Start() error {
	r.logger.Info("期限切れセッションの定期削除を開始します（cron）")
	r.cron.Start()
	return nil
}

// Shutdown は実行中の処理の完了を待って停止します。
func (r *CronRunner) Shutdown(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *CronRunner) run() {
	_ = runSweep(context.Background(), r.sweeper, r.logger)
}
