package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	CatalogBaseURL  string        // カタログサービス
	UsersBaseURL    string        // ユーザーサービス
	ExternalTimeout time.Duration // 外部呼び出し1回のタイムアウト

	RedisAddr    string // 空ならユーザーキャッシュ無効
	UserCacheTTL time.Duration

	KafkaBrokers        []string // 空なら放置カートはログのみ
	KafkaAbandonedTopic string

	JWTSecret string // 空なら認証なし

	GoEnv string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("EXTERNAL_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationOr("USER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "cart"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		CatalogBaseURL:  strings.TrimRight(os.Getenv("CATALOG_BASE_URL"), "/"),
		UsersBaseURL:    strings.TrimRight(os.Getenv("USERS_BASE_URL"), "/"),
		ExternalTimeout: timeout,

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		UserCacheTTL: cacheTTL,

		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaAbandonedTopic: getenv("KAFKA_ABANDONED_TOPIC", "cart.abandoned"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	//必須チェック
	if cfg.CatalogBaseURL == "" {
		return Config{}, fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if cfg.UsersBaseURL == "" {
		return Config{}, fmt.Errorf("USERS_BASE_URL is required")
	}
	if cfg.ExternalTimeout <= 0 {
		return Config{}, fmt.Errorf("EXTERNAL_TIMEOUT must be positive")
	}

	return cfg, nil
}

// DSNはgorm/migrate用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
