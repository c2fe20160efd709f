package state

import (
	"context"
	"time"

	"guildpass/bot/botapi"
	"guildpass/bot/commands/invite"
	"guildpass/config"
	"guildpass/dispatch"
	"guildpass/oauth"
	"guildpass/store"
	"guildpass/utils"

	"github.com/bwmarrin/discordgo"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Redis      *redis.Client
	Discord    *discordgo.Session
	Logger     *zap.Logger
	Store      store.Store
	Flow       *oauth.Flow
	Dispatcher *dispatch.Dispatcher
	Registry   *botapi.Registry
	Context    = context.Background()

	Config *config.Config
)

// NewLogger builds the production json logger at the given level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)

	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Setup loads config.yaml (optional) and the environment, then builds every
// shared client. Errors are fatal.
func Setup() {
	var err error

	Config, err = config.Load(
		config.FileSource{Path: "config.yaml"},
		config.EnvSource{},
	)

	if err != nil {
		panic(err)
	}

	Logger, err = NewLogger(Config.Meta.LogLevel)

	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(Logger)

	if err := config.GenConfig(); err != nil {
		Logger.Warn("Could not write config.yaml.sample", zap.Error(err))
	}

	if Config.Meta.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         Config.Meta.SentryDSN,
			Environment: Config.Meta.Environment,
		})

		if err != nil {
			Logger.Fatal("Failed to init sentry", zap.Error(err))
		}
	}

	if Config.Storage.RedisURL != "" {
		rOptions, err := redis.ParseURL(Config.Storage.RedisURL)

		if err != nil {
			Logger.Fatal("Invalid redis url", zap.Error(err))
		}

		Redis = redis.NewClient(rOptions)

		if err := Redis.Ping(Context).Err(); err != nil {
			Logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	}

	// shared by the bot session, users/@me and the token exchange
	httpClient, err := utils.NewHTTPClient(Config.OAuth.APIProxy, Config.Server.Timeout())

	if err != nil {
		Logger.Fatal("Invalid api proxy", zap.Error(err))
	}

	Discord, err = discordgo.New("Bot " + Config.DiscordAuth.Token)

	if err != nil {
		Logger.Fatal("Failed to create discord session", zap.Error(err))
	}

	Discord.Client = httpClient
	Discord.Identify.Intents = discordgo.IntentsGuilds

	Store, err = store.Open(Context, Config.Storage, Redis, Logger.Named("store"))

	if err != nil {
		Logger.Fatal("Failed to open token store", zap.Error(err), zap.String("backend", Config.Storage.Backend))
	}

	Flow = &oauth.Flow{
		OAuth:      oauth.NewOAuth2Config(Config.DiscordAuth, Config.OAuth),
		Users:      oauth.DiscordUsers{Client: httpClient},
		Store:      Store,
		HTTPClient: httpClient,
		Logger:     Logger.Named("oauth"),
	}

	if Redis != nil {
		Flow.Codes = oauth.RedisCodeCache{Redis: Redis, TTL: Config.OAuth.CodeCacheDuration()}
	}

	Dispatcher = &dispatch.Dispatcher{
		Adder:   Discord,
		Store:   Store,
		Limiter: dispatch.NewLimiter(Config.Dispatch.InvitesPerMinute),
		Logger:  Logger.Named("dispatch"),
	}

	Registry = botapi.NewRegistry(Logger.Named("bot"))

	invite.Register(Registry, invite.Options{
		Links:         Flow,
		Dispatcher:    Dispatcher,
		AllowedGuilds: mapset.NewSet(Config.Dispatch.AllowedGuilds...),
		Timeout:       Config.Dispatch.RunTimeout(),
	})
}

// Close releases everything Setup opened
func Close() {
	if Discord != nil {
		if err := Discord.Close(); err != nil {
			Logger.Error("Failed to close discord session", zap.Error(err))
		}
	}

	if Store != nil {
		if err := Store.Close(); err != nil {
			Logger.Error("Failed to close token store", zap.Error(err))
		}
	}

	if Redis != nil {
		Redis.Close()
	}

	sentry.Flush(2 * time.Second)

	Logger.Sync()
}
