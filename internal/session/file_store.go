package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/storage"
)

// FileStore はセッションテーブルを1つの JSON ファイルに保存します。
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore は FileStore を作成します。ファイルは最初の書き込み時に作られます。
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Path は保存先のファイルパスを返します。
func (s *FileStore) Path() string {
	return s.path
}

// View はテーブルを読み込んで fn に渡します。
func (s *FileStore) View(ctx context.Context, fn func(Table)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.load())
	return nil
}

// Update はロックを保持したまま読み込み・変更・保存を行います。
func (s *FileStore) Update(ctx context.Context, fn func(Table) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.load()
	if err := fn(table); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	data, err := encodeTable(table)
	if err != nil {
		return fmt.Errorf("session: failed to encode table: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: failed to write table: %w", err)
	}
	return nil
}

// load は読み込みに失敗した場合も空のテーブルを返します。
func (s *FileStore) load() Table {
	data, err := storage.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("セッションファイルを読み込めないため空のテーブルとして扱います",
			zap.String("path", s.path), zap.Error(err))
		return Table{}
	}
	table, err := decodeTable(data)
	if err != nil {
		s.logger.Warn("セッションファイルが壊れているため空のテーブルとして扱います",
			zap.String("path", s.path), zap.Error(err))
	}
	return table
}
