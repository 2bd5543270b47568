package main

import (
	"context"
	"os"
	"time"

	"github.com/cankoe/filepulse/internal/config"
	"github.com/cankoe/filepulse/internal/database"
	"github.com/cankoe/filepulse/internal/helpers"
	"github.com/cankoe/filepulse/internal/lock"
	"github.com/cankoe/filepulse/internal/mailer"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "config/config.yaml", "config file")
	pflag.Parse()

	if !run(*configPath) {
		os.Exit(1)
	}
}

// run checks every configured backend and reports whether all succeeded.
func run(configPath string) bool {
	cfg, err := config.LoadConfig(configPath, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	helpers.ConfigureLogging(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false

	if cfg.Mongo.URI != "" {
		mongoClient, err := database.NewMongoClient(ctx, cfg.Mongo.URI)
		if err != nil {
			log.Error().Err(err).Msg("MongoDB connection failed")
			failed = true
		} else {
			log.Info().Msg("MongoDB connected successfully!")
			defer mongoClient.Disconnect(ctx)
		}
	} else {
		log.Info().Msg("MongoDB not configured, skipping")
	}

	if cfg.Redis.Host != "" {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			log.Error().Err(err).Msg("Redis connection failed")
			failed = true
		} else {
			log.Info().Msg("Redis connected successfully!")
			defer redisClient.Close()
		}
	} else {
		log.Info().Msg("Redis not configured, skipping")
	}

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:          cfg.Mail.Host,
		Port:          cfg.Mail.Port,
		Username:      cfg.Mail.Username,
		Password:      cfg.Mail.Password,
		SSL:           cfg.Mail.SSL,
		SkipTLSVerify: cfg.Mail.SkipTLSVerify,
	})
	if err := sender.Check(); err != nil {
		log.Error().Err(err).Str("host", cfg.Mail.Host).Int("port", cfg.Mail.Port).Msg("SMTP connection failed")
		failed = true
	} else {
		log.Info().Str("host", cfg.Mail.Host).Msg("SMTP server accepted the connection!")
	}

	return !failed
}
