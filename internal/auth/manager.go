// Package auth はセッションの発行・確認・破棄を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/config"
	"github.com/yourusername/idgate/internal/identifier"
	"github.com/yourusername/idgate/internal/logging"
	"github.com/yourusername/idgate/internal/session"
)

const (
	// SessionCookieName はトークンを運ぶクッキー名です。
	SessionCookieName = "session"

	maxTokenAttempts = 3
)

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	cfg    *config.Config
	store  session.Store
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// Issued は発行したセッションです。
type Issued struct {
	Token  string
	Record session.Record
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, store session.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators()
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		ttl:    cfg.SessionTTL(),
		now:    time.Now,
	}
}

// Issue は識別子を判定し、新しいセッションを保存します。
// 判定はトリム後の値で行い、保存するのは入力そのままの値です。
func (m *Manager) Issue(ctx context.Context, user string) (*Issued, error) {
	trimmed := strings.TrimSpace(user)
	if trimmed == "" {
		return nil, missingUserError(trimmed)
	}

	kind, err := identifier.Classify(trimmed)
	if err != nil {
		return nil, err
	}

	record := session.Record{
		Identifier: user,
		Kind:       kind,
		Expiry:     m.now().Add(m.ttl).UnixMilli(),
	}

	for attempt := 1; ; attempt++ {
		token, err := session.GenerateToken()
		if err != nil {
			return nil, err
		}

		err = m.store.Update(ctx, func(table session.Table) error {
			return table.Insert(token, record)
		})
		if errors.Is(err, session.ErrTokenCollision) && attempt < maxTokenAttempts {
			m.logger.Warn("トークンが衝突したため再生成します", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		m.logger.Info("セッションを発行しました",
			zap.String("identifier", logging.Fingerprint(user)),
			zap.String("type", string(kind)),
			zap.Time("expires_at", record.ExpiresAt()),
		)
		return &Issued{Token: token, Record: record}, nil
	}
}

// Verify はトークンに対応する有効なセッションを返します。読み取りのみで、期限切れでも削除しません。
func (m *Manager) Verify(ctx context.Context, token string) (session.Record, bool, error) {
	if token == "" {
		return session.Record{}, false, nil
	}

	var (
		record session.Record
		ok     bool
	)
	now := m.now()
	if err := m.store.View(ctx, func(table session.Table) {
		record, ok = table.Lookup(token, now)
	}); err != nil {
		return session.Record{}, false, err
	}
	return record, ok, nil
}

// Revoke はトークンのセッションを削除します。存在しなくてもエラーにしません。
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Update(ctx, func(table session.Table) error {
		delete(table, token)
		return nil
	})
}

// SweepExpired は期限切れのセッションをまとめて削除します。
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	now := m.now()
	err := m.store.Update(ctx, func(table session.Table) error {
		removed = table.Sweep(now)
		if removed == 0 {
			return session.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.Info("期限切れセッションを削除しました", zap.Int("removed", removed))
	}
	return removed, nil
}
