package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Settings are the process-level options read from the environment.
type Settings struct {
	Port       int    `env:"WORDUP_PORT" envDefault:"8000" validate:"gte=1,lte=65535"`
	Server     string `env:"WORDUP_SERVER" envDefault:"http://localhost" validate:"required,url"`
	ContentDir string `env:"WORDUP_CONTENT_DIR" envDefault:"content" validate:"required"`
	WPPath     string `env:"WORDUP_WP_PATH" envDefault:"/var/www/html"`
	WPBin      string `env:"WORDUP_WP_BIN" envDefault:"wp" validate:"required"`
	AllowRoot  bool   `env:"WORDUP_ALLOW_ROOT" envDefault:"false"`
	AdminID    int64  `env:"WORDUP_ADMIN_ID" envDefault:"1" validate:"gte=1"`
	LogLevel   string `env:"WORDUP_LOG_LEVEL" envDefault:"info" validate:"oneof=silent error warn info debug"`

	logger *logrus.Logger
}

// LoadEnv loads the env files that exist and reports how many were found.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

// LoadSettings loads env files, parses the environment and builds the logger,
// which writes to stderr.
func LoadSettings(envFiles []string) (*Settings, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}

	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if err := validate.Struct(s); err != nil {
		return nil, errors.Wrap(err, "invalid environment settings")
	}

	s.logger = NewLogger(s.LogrusLogLevel(), os.Stderr)
	return s, nil
}

// NewLogger builds the text logger used across the tool.
func NewLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// Logger returns the configured logger.
func (s *Settings) Logger() *logrus.Logger {
	if s.logger == nil {
		s.logger = NewLogger(s.LogrusLogLevel(), os.Stderr)
	}
	return s.logger
}

func (s *Settings) LogrusLogLevel() logrus.Level {
	switch s.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// SiteURL joins the server and port the way WP_HOME is configured.
func (s *Settings) SiteURL() string {
	return fmt.Sprintf("%s:%d", strings.TrimRight(s.Server, "/"), s.Port)
}
