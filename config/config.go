package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger    `mapstructure:"logger"`
	Data      Data      `mapstructure:"data"`
	Screener  Screener  `mapstructure:"screener"`
	Report    Report    `mapstructure:"report"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Cache     Cache     `mapstructure:"cache"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Data struct {
	Dir        string `mapstructure:"dir" validate:"required"`
	SymbolFile string `mapstructure:"symbol_file"`
}

type Screener struct {
	MinBars        int     `mapstructure:"min_bars" validate:"min=1"`
	MinTurnover    float64 `mapstructure:"min_turnover" validate:"min=0"`
	MaxConcurrency int     `mapstructure:"max_concurrency" validate:"min=1"`
}

type Report struct {
	OutputDir    string `mapstructure:"output_dir" validate:"required"`
	HistoryFiles int    `mapstructure:"history_files" validate:"min=1"`
}

type Scheduler struct {
	Cron string `mapstructure:"cron"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

func Load() (*Config, error) {
	// .env is optional, used for local overrides.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := goValidator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("data.dir", "fund_data")
	viper.SetDefault("data.symbol_file", "etf_list.txt")
	viper.SetDefault("screener.min_bars", 30)
	viper.SetDefault("screener.min_turnover", 5_000_000)
	viper.SetDefault("screener.max_concurrency", runtime.NumCPU())
	viper.SetDefault("report.output_dir", "reports")
	viper.SetDefault("report.history_files", 10)
	viper.SetDefault("scheduler.cron", "0 16 * * 1-5")
	viper.SetDefault("cache.default_expiration", 10*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 30*time.Minute)
}
