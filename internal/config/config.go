package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminIDs    []int64 `mapstructure:"admin_ids"`
		PollTimeout int     `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Backend string // file | postgres
		Dir     string
	} `mapstructure:"storage"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Notify struct {
		SendTimeout time.Duration `mapstructure:"send_timeout"`
		Workers     int
	} `mapstructure:"notify"`
}

func Load(path string) (Config, error) {
	// .env, если есть — удобно локально; в проде переменные уже в окружении
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("notify.send_timeout", 5*time.Second)
	v.SetDefault("notify.workers", 4)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.Telegram.Token == "" {
		return c, fmt.Errorf("telegram.token is required")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		return c, fmt.Errorf("telegram.admin_ids is required")
	}
	switch c.Storage.Backend {
	case "file", "postgres":
	default:
		return c, fmt.Errorf("storage.backend must be file or postgres, got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Postgres.DSN == "" {
		return c, fmt.Errorf("postgres.dsn is required for the postgres backend")
	}
	return c, nil
}
