// Package session はセッションテーブルとその永続化を提供します。
package session

import (
	"time"

	"github.com/yourusername/idgate/internal/identifier"
)

// Record は1つのセッションを表します。作成後は変更しません。
type Record struct {
	Identifier string          `json:"identifier"`
	Kind       identifier.Kind `json:"type"`
	Expiry     int64           `json:"expiry"` // エポックからのミリ秒
}

// ExpiresAt は Expiry を time.Time に変換します。
func (r Record) ExpiresAt() time.Time {
	return time.UnixMilli(r.Expiry)
}

// Expired は now 時点で期限切れかどうかを返します（expiry < now）。
func (r Record) Expired(now time.Time) bool {
	return r.Expiry < now.UnixMilli()
}

// Table はトークンからセッションへの対応表です。常に全体を読み書きします。
type Table map[string]Record

// Lookup は有効なセッションを返します。存在しないか期限切れなら false です。
func (t Table) Lookup(token string, now time.Time) (Record, bool) {
	record, ok := t[token]
	if !ok || record.Expired(now) {
		return Record{}, false
	}
	return record, true
}

// Insert は新しいトークンを登録します。既存のキーとは衝突させません。
func (t Table) Insert(token string, record Record) error {
	if _, exists := t[token]; exists {
		return ErrTokenCollision
	}
	t[token] = record
	return nil
}

// Sweep は期限切れのセッションを削除し、削除件数を返します。
func (t Table) Sweep(now time.Time) int {
	removed := 0
	for token, record := range t {
		if record.Expired(now) {
			delete(t, token)
			removed++
		}
	}
	return removed
}
