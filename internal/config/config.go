package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	applog "babashop/internal/log"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	Port     string
	DBDriver string // sqlite | postgres
	DBDSN    string
	MediaDir string
	LogFile  string
	LogLevel string

	JWTSecret         string
	JWTTTL            time.Duration
	OTPTTL            time.Duration
	OTPResendCooldown time.Duration

	AdminEmail    string
	AdminPassword string
	SeedDemo      bool

	SMTP SMTP

	StripeSecretKey string
	PaymentCurrency string
	PaymentTestMode bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers   []string
	KafkaTopic     string
	OutboxInterval time.Duration

	MaxBodyBytes   int
	UploadMaxBytes int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "babashop.db") // sqlite file in project root
	v.SetDefault("MEDIA_DIR", "./media")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_RESEND_COOLDOWN", "60s")
	v.SetDefault("ADMIN_EMAIL", "admin@babashop.local")
	v.SetDefault("ADMIN_PASSWORD", "Admin#2024")
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "BABA Shoes Shop <no-reply@babashop.local>")
	v.SetDefault("PAYMENT_CURRENCY", "vnd")
	v.SetDefault("PAYMENT_TEST_MODE", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_TOPIC", "babashop-orders")
	v.SetDefault("OUTBOX_INTERVAL", "2s")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)   // 1 MiB
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20) // 10 MiB
}

// Load reads configuration from defaults, an optional CONFIG_FILE and the environment.
// Environment variables win over the file.
func Load() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			applog.Logger().Warn().Err(err).Str("file", file).Msg("[config] could not read config file")
		}
	}

	cfg := Config{
		Port:              v.GetString("PORT"),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:             v.GetString("DB_DSN"),
		MediaDir:          v.GetString("MEDIA_DIR"),
		LogFile:           v.GetString("LOG_FILE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		OTPTTL:            v.GetDuration("OTP_TTL"),
		OTPResendCooldown: v.GetDuration("OTP_RESEND_COOLDOWN"),
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		SeedDemo:          v.GetBool("SEED_DEMO"),
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		PaymentCurrency: strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		PaymentTestMode: v.GetBool("PAYMENT_TEST_MODE"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		OutboxInterval:  v.GetDuration("OUTBOX_INTERVAL"),
		MaxBodyBytes:    v.GetInt("MAX_BODY_BYTES"),
		UploadMaxBytes:  v.GetInt("UPLOAD_MAX_BYTES"),
	}

	applog.Logger().Info().
		Str("port", cfg.Port).
		Str("db_driver", cfg.DBDriver).
		Str("media_dir", cfg.MediaDir).
		Str("log_file", cfg.LogFile).
		Bool("smtp", cfg.SMTP.Host != "").
		Bool("stripe", cfg.StripeSecretKey != "").
		Bool("payment_test_mode", cfg.PaymentTestMode).
		Str("redis", cfg.RedisAddr).
		Strs("kafka", cfg.KafkaBrokers).
		Msg("[config] loaded")
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
