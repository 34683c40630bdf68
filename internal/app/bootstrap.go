package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 存放应用级配置：默认值 -> .env -> 环境变量，命令行参数最后覆盖。
type Config struct {
	DBPath       string `env:"HAZARD_DB_PATH" envDefault:"data/reports.db"`
	LedgerPath   string `env:"HAZARD_LEDGER_PATH" envDefault:"data/reports.csv"`
	ListenAddr   string `env:"HAZARD_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	Timezone     string `env:"HAZARD_TIMEZONE" envDefault:"UTC"`
	UploadPolicy string `env:"HAZARD_UPLOAD_POLICY"` // 可选：YAML 上传策略文件

	LogDir   string `env:"HAZARD_LOG_DIR" envDefault:"logs"`
	LogLevel string `env:"HAZARD_LOG_LEVEL" envDefault:"info"`

	SMTP SMTPConfig
}

// SMTPConfig 是通知邮件的发送配置。Host 为空表示不发送通知。
type SMTPConfig struct {
	Host      string        `env:"SMTP_HOST"`
	Port      int           `env:"SMTP_PORT" envDefault:"587"`
	Username  string        `env:"SMTP_USERNAME"`
	Password  string        `env:"SMTP_PASSWORD"`
	From      string        `env:"SMTP_FROM" envDefault:"hazard-report@localhost"`
	Recipient string        `env:"SAFETY_OFFICER_EMAIL"`
	Timeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
}

// Enabled 表示通知是否已配置。
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Recipient) != ""
}

// DefaultConfig 返回本地开发环境的默认配置（不读取环境变量）。
func DefaultConfig() Config {
	return Config{
		DBPath:     "data/reports.db",
		LedgerPath: "data/reports.csv",
		ListenAddr: "127.0.0.1:8080",
		Timezone:   "UTC",
		LogDir:     "logs",
		LogLevel:   "info",
		SMTP: SMTPConfig{
			Port:    587,
			From:    "hazard-report@localhost",
			Timeout: 10 * time.Second,
		},
	}
}

// LoadConfig 读取 .env（可选，文件不存在不报错）后解析环境变量。
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location 返回提交时间校验所用的固定时区。
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// EnsureDirs 创建数据库、台账所在目录。
func (c Config) EnsureDirs() error {
	for _, p := range []string{c.DBPath, c.LedgerPath} {
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
