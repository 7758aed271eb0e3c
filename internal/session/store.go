package session

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrTokenCollision は同じトークンが既に存在する場合に返されます。
	ErrTokenCollision = errors.New("session: token already exists")
	// ErrNoChange を Update の関数が返すと書き込みを省略します。
	ErrNoChange = errors.New("session: no change")
)

// Store はセッションテーブルの永続化を担います。
// Update は読み込み・変更・保存を1単位として直列に実行します。
type Store interface {
	View(ctx context.Context, fn func(Table)) error
	Update(ctx context.Context, fn func(Table) error) error
}

// decodeTable は保存済みのテーブルを復元します。空・壊れたデータは空のテーブルとして扱い、
// その場合は2番目の戻り値にパースエラーを返します。
func decodeTable(data []byte) (Table, error) {
	table := Table{}
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return Table{}, err
	}
	if table == nil {
		// "null" が保存されていた場合
		return Table{}, nil
	}
	for token, record := range table {
		// 種類が不明なレコードは有効なセッションとして扱わない
		if !record.Kind.Valid() {
			delete(table, token)
		}
	}
	return table, nil
}

func encodeTable(table Table) ([]byte, error) {
	return json.MarshalIndent(table, "", "  ")
}
