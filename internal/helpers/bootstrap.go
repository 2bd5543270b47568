package helpers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cankoe/filepulse/internal/config"
	"github.com/cankoe/filepulse/internal/database"
	"github.com/cankoe/filepulse/internal/deliveries"
	"github.com/cankoe/filepulse/internal/lock"
	"github.com/cankoe/filepulse/internal/mailer"
	"github.com/cankoe/filepulse/internal/models"
	"github.com/cankoe/filepulse/internal/reports"
	"github.com/cankoe/filepulse/internal/scheduler"
	"github.com/cankoe/filepulse/internal/settings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
)

type AppComponents struct {
	Config      *config.Config
	MongoClient *mongo.Client
	RedisClient *redis.Client

	// Deliveries is nil when no MongoDB is configured.
	Deliveries *deliveries.Log
	Sender     *mailer.SMTPSender
	Mailer     *mailer.Service
	Scheduler  *scheduler.Scheduler
	Surface    *settings.Surface
}

// ConfigureLogging applies the configured level and output format to the
// global zerolog logger.
func ConfigureLogging(cfg *config.Config) {
	if strings.EqualFold(cfg.Log.Format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if level == zerolog.InfoLevel && !strings.EqualFold(cfg.Log.Level, "info") {
		log.Warn().Msgf("Invalid log level '%s', defaulting to info", cfg.Log.Level)
	}
}

// InitializeCommonComponents loads configuration and builds every FilePulse
// component. MongoDB and Redis are optional; without them deliveries are
// not recorded and scheduled sends are not locked.
func InitializeCommonComponents(ctx context.Context, serviceName, configPath string, flags *pflag.FlagSet) (*AppComponents, error) {
	cfg, err := config.LoadConfig(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	ConfigureLogging(cfg)

	log.Info().Msgf("Starting %s with log level %s...", serviceName, zerolog.GlobalLevel().String())

	app := &AppComponents{Config: cfg}

	var db *mongo.Database
	if cfg.Mongo.URI != "" {
		app.MongoClient, err = database.NewMongoClient(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		db = app.MongoClient.Database(cfg.Mongo.Database)

		app.Deliveries = deliveries.NewLog(db.Collection(database.DeliveriesCollection))
		if err := app.Deliveries.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("Continuing without delivery indexes")
		}
	}

	var locker *lock.RedisLocker
	if cfg.Redis.Host != "" {
		app.RedisClient, err = lock.NewRedisClient(ctx, cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			app.CloseAll(ctx)
			return nil, err
		}
		locker = lock.NewRedisLocker(app.RedisClient, time.Duration(cfg.Scheduler.LockTTLMinutes)*time.Minute)
	}

	reportStore, err := newReportStore(ctx, cfg, db)
	if err != nil {
		app.CloseAll(ctx)
		return nil, err
	}
	thresholdStore := newThresholdStore(cfg, db)

	app.Sender = mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:          cfg.Mail.Host,
		Port:          cfg.Mail.Port,
		Username:      cfg.Mail.Username,
		Password:      cfg.Mail.Password,
		SSL:           cfg.Mail.SSL,
		SkipTLSVerify: cfg.Mail.SkipTLSVerify,
	})

	var recorder deliveries.Recorder = deliveries.Nop{}
	if app.Deliveries != nil {
		recorder = app.Deliveries
	}
	app.Mailer = mailer.NewService(app.Sender, reportStore, recorder, cfg.Mail.From)

	book := &settings.RecipientBook{}
	opts := []scheduler.Option{
		scheduler.WithPollInterval(time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second),
	}
	if locker != nil {
		opts = append(opts, scheduler.WithLocker(locker))
	}
	app.Scheduler = scheduler.New(app.Mailer, book.List, opts...)
	app.Surface = settings.NewSurface(thresholdStore, book, app.Mailer, app.Scheduler)

	return app, nil
}

func newReportStore(ctx context.Context, cfg *config.Config, db *mongo.Database) (reports.Store, error) {
	if cfg.Reports.Backend == "mongo" {
		if db == nil {
			return nil, fmt.Errorf("reports backend mongo requires a MongoDB connection")
		}
		s := reports.NewMongoStore(db.Collection(database.ReportsCollection))
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("Continuing without report indexes")
		}
		log.Info().Msg("Listing reports from MongoDB")
		return s, nil
	}
	log.Info().Str("dir", cfg.Reports.Dir).Strs("extensions", cfg.Reports.Extensions).Msg("Listing reports from directory")
	return reports.NewDirStore(cfg.Reports.Dir, cfg.Reports.Extensions), nil
}

func newThresholdStore(cfg *config.Config, db *mongo.Database) settings.ThresholdStore {
	defaults := models.Thresholds{
		Green: cfg.Thresholds.Green,
		Amber: cfg.Thresholds.Amber,
		Red:   cfg.Thresholds.Red,
	}
	if cfg.Thresholds.Backend == "mongo" && db != nil {
		return settings.NewMongoStore(db.Collection(database.SettingsCollection), defaults)
	}
	return settings.NewFileStore(cfg.Thresholds.File, defaults)
}

// CloseAll stops the scheduler and closes any open connections.
func (c *AppComponents) CloseAll(ctx context.Context) {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect MongoDB client")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}
