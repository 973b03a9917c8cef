// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// グローバルなシングルトンにはせず、各コンポーネントに明示的に渡す。
type Config struct {
	// Database
	DatabaseURL string

	// Cognito
	AWSRegion         string
	CognitoUserPoolID string
	CognitoClientID   string

	// ローカル開発（cognito-local等）用。未設定なら通常の資格情報チェーンを使う。
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpointURL     string

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitSignup  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		missing = append(missing, "AWS_REGION")
	}

	cfg.CognitoUserPoolID = os.Getenv("COGNITO_USER_POOL_ID")
	if cfg.CognitoUserPoolID == "" {
		missing = append(missing, "COGNITO_USER_POOL_ID")
	}

	cfg.CognitoClientID = os.Getenv("COGNITO_CLIENT_ID")
	if cfg.CognitoClientID == "" {
		missing = append(missing, "COGNITO_CLIENT_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.AWSEndpointURL = os.Getenv("AWS_ENDPOINT_URL")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSignup = getEnvInt("RATE_LIMIT_SIGNUP", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
