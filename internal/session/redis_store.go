package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxUpdateRetries = 10

// stringGetter は *redis.Client と *redis.Tx の両方が満たします。
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore はセッションテーブル全体を Redis の1キーに JSON で保存します。
type RedisStore struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		rdb:    rdb,
		key:    key,
		logger: logger,
	}
}

// View はテーブルを読み込んで fn に渡します。
func (s *RedisStore) View(ctx context.Context, fn func(Table)) error {
	table, err := s.load(ctx, s.rdb)
	if err != nil {
		return err
	}
	fn(table)
	return nil
}

// Update は WATCH で楽観ロックを取り、競合した場合は再試行します。
func (s *RedisStore) Update(ctx context.Context, fn func(Table) error) error {
	txf := func(tx *redis.Tx) error {
		table, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(table); err != nil {
			return err
		}
		data, err := encodeTable(table)
		if err != nil {
			return fmt.Errorf("session: failed to encode table: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("session: failed to update table: %w", err)
		}
		return nil
	}
	return fmt.Errorf("session: too many concurrent updates on %s", s.key)
}

// load はキーが無い・中身が壊れている場合に空のテーブルを返します。接続エラーはそのまま返します。
func (s *RedisStore) load(ctx context.Context, cmd stringGetter) (Table, error) {
	data, err := cmd.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Table{}, nil
		}
		return nil, fmt.Errorf("session: failed to read table: %w", err)
	}
	table, err := decodeTable(data)
	if err != nil {
		s.logger.Warn("Redis 上のセッションテーブルが壊れているため空のテーブルとして扱います",
			zap.String("key", s.key), zap.Error(err))
	}
	return table, nil
}
