// Package identifier はログイン識別子（メールアドレス・電話番号）の判定を提供します。
package identifier

import (
	"errors"
	"regexp"
)

// Kind は識別子の種類を表します。
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// ErrUnclassifiable はメールアドレスにも電話番号にも該当しない場合に返されます。
var ErrUnclassifiable = errors.New("identifier must be a valid email or international phone number")

var (
	// @ を1つだけ含み、ドメイン部にドットがあり、空白を含まない。
	// 空白には \v と BOM (U+FEFF) も含める（RE2 の \s には含まれない）
	emailPattern = regexp.MustCompile(`^[^@\t\n\v\f\r \p{Z}\x{FEFF}]+@[^@\t\n\v\f\r \p{Z}\x{FEFF}]+\.[^@\t\n\v\f\r \p{Z}\x{FEFF}]+$`)
	// 先頭の + は任意、数字 7〜15 桁
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// Classify はトリム済みの文字列を判定します。メール判定を優先します。
func Classify(value string) (Kind, error) {
	switch {
	case emailPattern.MatchString(value):
		return KindEmail, nil
	case phonePattern.MatchString(value):
		return KindPhone, nil
	default:
		return "", ErrUnclassifiable
	}
}

// Valid は既知の種類かどうかを返します。
func (k Kind) Valid() bool {
	return k == KindEmail || k == KindPhone
}
