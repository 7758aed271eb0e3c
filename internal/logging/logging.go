// Package logging はロガーの初期化とリクエストログ用のミドルウェアを提供します。
package logging

import (
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const (
	// RequestIDHeader はリクエストIDを受け渡すヘッダーです。
	RequestIDHeader = "X-Request-ID"
	// ContextRequestIDKey は gin.Context 上のリクエストIDのキーです。
	ContextRequestIDKey = "logging.request_id"
)

// New は Gin のモードに応じたロガーを作成します。
func New(ginMode string) (*zap.Logger, error) {
	if ginMode == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// RequestLogger は Gin のミドルウェア用関数で、リクエストのログを取得します。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// RequestID はミドルウェアが設定したリクエストIDを返します。
func RequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}

// Fingerprint は識別子をそのままログに出さないための短いハッシュを返します。
func Fingerprint(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
