package jobs

import "context"

const (
	// TaskTypeSweep は期限切れセッション削除タスクの種別です。
	TaskTypeSweep = "session:sweep"

	queueName = "sessions"
)

// Sweeper は期限切れセッションを削除できる対象です。
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Runner は定期実行の開始と停止を提供します。
type Runner interface {
	Start() error
	Shutdown(ctx context.Context) error
}
