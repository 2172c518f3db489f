package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	AIBaseURL   string        `mapstructure:"AI_BASE_URL"`
	AIAPIKey    string        `mapstructure:"AI_API_KEY"`
	AIModel     string        `mapstructure:"AI_MODEL"`
	EmbedModel  string        `mapstructure:"AI_EMBED_MODEL"`
	VisionModel string        `mapstructure:"AI_VISION_MODEL"`
	AITimeout   time.Duration `mapstructure:"AI_TIMEOUT"`

	MailProvider string `mapstructure:"MAIL_PROVIDER"`
	MailAPIURL   string `mapstructure:"MAIL_API_URL"`
	MailAPIKey   string `mapstructure:"MAIL_API_KEY"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPass     string `mapstructure:"SMTP_PASS"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	StorageUploadURL string `mapstructure:"STORAGE_UPLOAD_URL"`
	StorageAPIKey    string `mapstructure:"STORAGE_API_KEY"`

	DefaultResponderID    int64  `mapstructure:"DEFAULT_RESPONDER_ID"`
	DefaultResponderName  string `mapstructure:"DEFAULT_RESPONDER_NAME"`
	DefaultResponderEmail string `mapstructure:"DEFAULT_RESPONDER_EMAIL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_EMBED_MODEL", "text-embedding-3-small")
	v.SetDefault("AI_VISION_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", "10s")
	v.SetDefault("MAIL_PROVIDER", "smtp")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "noreply@bms-ged.local")
	v.SetDefault("DEFAULT_RESPONDER_ID", 0)
	v.SetDefault("DEFAULT_RESPONDER_NAME", "Maintenance Team")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
