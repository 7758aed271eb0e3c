// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// セッションストアの種類
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッションストア設定
	SessionStore    string // file または redis
	SessionFile     string // セッションテーブルを保存するJSONファイルのパス
	SessionRedisURL string // redis ストア用の接続URL
	SessionRedisKey string // テーブル全体を保存するキー
	SessionTTLHours int    // セッションの有効期限（時間）

	// クッキー設定
	CookieSecure bool   // Secure 属性を付与するか
	CookieDomain string // Domain 属性

	// 期限切れセッションの掃除
	SweepSchedule      string // cron 形式。空文字で無効
	SweepQueueRedisURL string // 設定時は Asynq の定期タスクとして実行
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	ginMode := getEnv("GIN_MODE", "debug")

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: ginMode,

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// セッションストア設定
		SessionStore:    strings.ToLower(getEnv("SESSION_STORE", StoreFile)),
		SessionFile:     getEnv("SESSION_FILE", filepath.Join("data", "sessions.json")),
		SessionRedisURL: getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionRedisKey: getEnv("SESSION_REDIS_KEY", "sessions"),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 24),

		// クッキー設定（本番モードではデフォルトで Secure）
		CookieSecure: getEnvAsBool("COOKIE_SECURE", ginMode == "release"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),

		// 掃除設定（デフォルトは無効）
		SweepSchedule:      strings.TrimSpace(getEnv("SWEEP_SCHEDULE", "")),
		SweepQueueRedisURL: getEnv("SWEEP_QUEUE_REDIS_URL", ""),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SessionTTL はセッションの有効期間を返します。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreFile:
		if c.SessionFile == "" {
			return fmt.Errorf("SESSION_FILE is required when SESSION_STORE=file")
		}
	case StoreRedis:
		if c.SessionRedisURL == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required when SESSION_STORE=redis")
		}
		if c.SessionRedisKey == "" {
			return fmt.Errorf("SESSION_REDIS_KEY must not be empty")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE: %q", c.SessionStore)
	}

	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
