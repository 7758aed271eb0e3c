package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes は 256 ビット。base64url で 43 文字になります。
const tokenBytes = 32

// GenerateToken は URL セーフなランダムトークンを生成します。
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
