package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRunner は Asynq の定期タスクとして削除処理を実行します。
type QueueRunner struct {
	spec      string
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	sweeper   Sweeper
	logger    *zap.Logger
}

// NewQueueRunner は QueueRunner を初期化します。
func NewQueueRunner(redisURL, spec string, sweeper Sweeper, logger *zap.Logger) (*QueueRunner, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queueName: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	r := &QueueRunner{
		spec:      spec,
		client:    asynq.NewClient(opt),
		server:    server,
		scheduler: asynq.NewScheduler(opt, nil),
		mux:       mux,
		sweeper:   sweeper,
		logger:    logger,
	}
	mux.HandleFunc(TaskTypeSweep, r.handleSweepTask)
	return r, nil
}

// Start は定期タスクを登録し、ワーカーとスケジューラーを起動します。
// 起動直後にも1回分のタスクを投入します。
func (r *QueueRunner) Start() error {
	if _, err := r.scheduler.Register(r.spec, newSweepTask()); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", r.spec, err)
	}
	if err := r.server.Start(r.mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	if err := r.scheduler.Start(); err != nil {
		r.server.Shutdown()
		return fmt.Errorf("failed to start asynq scheduler: %w", err)
	}

	_, err := r.client.Enqueue(newSweepTask(), asynq.Unique(time.Minute))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		r.logger.Warn("起動時の削除タスクの投入に失敗しました", zap.Error(err))
	}

	r.logger.Info("期限切れセッションの定期削除を開始します（asynq）", zap.String("schedule", r.spec))
	return nil
}

// Shutdown はスケジューラー・サーバー・クライアントを閉じます。
func (r *QueueRunner) Shutdown(ctx context.Context) error {
	r.scheduler.Shutdown()
	r.server.Shutdown()
	return r.client.Close()
}

func (r *QueueRunner) handleSweepTask(ctx context.Context, task *asynq.Task) error {
	if task.Type() != TaskTypeSweep {
		return fmt.Errorf("unexpected task type: %s", task.Type())
	}
	return runSweep(ctx, r.sweeper, r.logger)
}

func newSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSweep, nil, asynq.Queue(queueName), asynq.MaxRetry(0))
}
