package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	CatalogPath                   string `mapstructure:"CATALOG_PATH"`
	PersistState                  bool   `mapstructure:"PERSIST_STATE"`
	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	FrontendURL                   string `mapstructure:"FRONTEND_URL"`
	AdminRole                     string `mapstructure:"ADMIN_ROLE"`
	RedisAddr                     string `mapstructure:"REDIS_ADDR"`
	RedisPassword                 string `mapstructure:"REDIS_PASSWORD"`
	LeaderboardKey                string `mapstructure:"LEADERBOARD_KEY"`
	LeaderboardCacheSize          int    `mapstructure:"LEADERBOARD_CACHE_SIZE"`
	EnableCORS                    bool   `mapstructure:"ENABLE_CORS"`
}

// LoadConfig reads defaults, an optional .env file and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "levelup.db")
	v.SetDefault("CATALOG_PATH", "catalog.yaml")
	v.SetDefault("PERSIST_STATE", false)
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/")
	v.SetDefault("ADMIN_ROLE", "levelup::admins")
	v.SetDefault("LEADERBOARD_KEY", "levelup:leaderboard")
	v.SetDefault("LEADERBOARD_CACHE_SIZE", 32)
	v.SetDefault("ENABLE_CORS", false)

	for _, key := range []string{
		"DISCORD_CLIENT_ID",
		"DISCORD_CLIENT_SECRET",
		"DISCORD_GUILD_ID",
		"DISCORD_BOT_TOKEN",
		"DISCORD_NOTIFICATIONS_CHANNEL_ID",
		"JWT_SECRET",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
	} {
		v.BindEnv(key)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
