package config

import "time"

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	DiscordAuth DiscordAuth `yaml:"discord_auth" validate:"required"`
	OAuth       OAuth       `yaml:"oauth" validate:"required"`
	Server      Server      `yaml:"server" validate:"required"`
	Storage     Storage     `yaml:"storage" validate:"required"`
	Dispatch    Dispatch    `yaml:"dispatch" validate:"required"`
	Meta        Meta        `yaml:"meta" validate:"required"`
}

type DiscordAuth struct {
	Token        string `yaml:"token" env:"DISCORD_TOKEN" comment:"Discord bot token" validate:"required"`
	ClientID     string `yaml:"client_id" env:"DISCORD_CLIENT_ID" comment:"Discord Client ID" validate:"required"`
	ClientSecret string `yaml:"client_secret" env:"DISCORD_CLIENT_SECRET" comment:"Discord Client Secret" validate:"required"`
	RedirectURI  string `yaml:"redirect_uri" env:"DISCORD_REDIRECT_URI" default:"https://verify.com/callback" comment:"OAuth2 redirect URI, must point at /callback" validate:"required,url"`
	CommandGuild string `yaml:"command_guild" env:"DISCORD_COMMAND_GUILD" default:"" comment:"Register slash commands to this guild only, empty for global commands" required:"false"`
}

type OAuth struct {
	AuthorizeURL string   `yaml:"authorize_url" env:"OAUTH_AUTHORIZE_URL" default:"https://discord.com/oauth2/authorize" comment:"OAuth2 authorize endpoint" validate:"required,url"`
	TokenURL     string   `yaml:"token_url" env:"OAUTH_TOKEN_URL" default:"https://discord.com/api/oauth2/token" comment:"OAuth2 token endpoint" validate:"required,url"`
	Scopes       []string `yaml:"scopes" env:"OAUTH_SCOPES" envSeparator:"," default:"identify,guilds.join" comment:"OAuth2 scopes" validate:"required,min=1"`
	CodeCacheTTL string   `yaml:"code_cache_ttl" env:"OAUTH_CODE_CACHE_TTL" default:"5m" comment:"How long a used code is remembered (needs redis)" required:"false"`
	APIProxy     string   `yaml:"api_proxy" env:"DISCORD_API_PROXY" default:"" comment:"Send Discord REST and OAuth traffic through this base URL" required:"false" validate:"omitempty,url"`
}

type Server struct {
	Host           string `yaml:"host" env:"CALLBACK_HOST" default:"0.0.0.0" comment:"Address to bind the callback server to" validate:"required"`
	Port           string `yaml:"port" env:"PORT" default:"5000" comment:"Port to run the callback server on" validate:"required,numeric"`
	RequestTimeout string `yaml:"request_timeout" env:"REQUEST_TIMEOUT" default:"30s" comment:"Timeout for a single HTTP request, including upstream calls" required:"false"`
	RatelimitReqs  int    `yaml:"ratelimit_reqs" env:"RATELIMIT_REQS" default:"10" comment:"Callback requests allowed per IP per window (needs redis, 0 disables)" required:"false" validate:"gte=0"`
	RatelimitTime  string `yaml:"ratelimit_time" env:"RATELIMIT_TIME" default:"1m" comment:"Ratelimit window" required:"false"`
}

type Storage struct {
	Backend     string `yaml:"backend" env:"STORE_BACKEND" default:"file" comment:"Token store backend: file, redis or postgres" validate:"required,oneof=file redis postgres"`
	UserFile    string `yaml:"user_file" env:"USER_FILE" default:"users.json" comment:"Token file used by the file backend" validate:"required"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL" default:"" comment:"Redis URL, enables code replay protection and ratelimits" required:"false" validate:"required_if=Backend redis"`
	RedisKey    string `yaml:"redis_key" env:"REDIS_KEY" default:"guildpass:users" comment:"Hash key used by the redis backend" validate:"required"`
	PostgresURL string `yaml:"postgres_url" env:"POSTGRES_URL" default:"" comment:"Postgres URL used by the postgres backend" required:"false" validate:"required_if=Backend postgres"`
	ImportFile  string `yaml:"import_file" env:"IMPORT_FILE" default:"" comment:"Legacy users.json imported into an empty postgres table" required:"false"`
}

type Dispatch struct {
	Timeout          string   `yaml:"timeout" env:"DISPATCH_TIMEOUT" default:"10m" comment:"Upper bound for a whole dispatch run" required:"false"`
	InvitesPerMinute int      `yaml:"invites_per_minute" env:"DISPATCH_INVITES_PER_MINUTE" default:"0" comment:"Pace guild member adds, 0 disables pacing" required:"false" validate:"gte=0"`
	AllowedGuilds    []string `yaml:"allowed_guilds" env:"DISPATCH_ALLOWED_GUILDS" envSeparator:"," default:"" comment:"Guilds the dispatch command may run in, empty allows all" required:"false"`
}

type Meta struct {
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" default:"info" comment:"debug, info, warn or error" validate:"required,oneof=debug info warn error"`
	SentryDSN   string `yaml:"sentry_dsn" env:"SENTRY_DSN" default:"" comment:"Sentry DSN for panic reports" required:"false"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" default:"prod" comment:"Environment name reported to sentry" validate:"required"`
}

// Defaults returns a Config holding every literal default. Secrets are left empty.
func Defaults() *Config {
	return &Config{
		DiscordAuth: DiscordAuth{
			RedirectURI: "https://verify.com/callback",
		},
		OAuth: OAuth{
			AuthorizeURL: "https://discord.com/oauth2/authorize",
			TokenURL:     "https://discord.com/api/oauth2/token",
			Scopes:       []string{"identify", "guilds.join"},
			CodeCacheTTL: "5m",
		},
		Server: Server{
			Host:           "0.0.0.0",
			Port:           "5000",
			RequestTimeout: "30s",
			RatelimitReqs:  10,
			RatelimitTime:  "1m",
		},
		Storage: Storage{
			Backend:  BackendFile,
			UserFile: "users.json",
			RedisKey: "guildpass:users",
		},
		Dispatch: Dispatch{
			Timeout: "10m",
		},
		Meta: Meta{
			LogLevel:    "info",
			Environment: "prod",
		},
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Addr returns the listen address of the callback server
func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

func (s Server) Timeout() time.Duration {
	return parseDuration(s.RequestTimeout, 30*time.Second)
}

// RouteTimeout bounds a whole request. The callback makes two outbound calls,
// each bounded by Timeout, and must still answer with its own text.
func (s Server) RouteTimeout() time.Duration {
	return 2*s.Timeout() + 5*time.Second
}

func (s Server) RatelimitWindow() time.Duration {
	return parseDuration(s.RatelimitTime, time.Minute)
}

func (o OAuth) CodeCacheDuration() time.Duration {
	return parseDuration(o.CodeCacheTTL, 5*time.Minute)
}

func (d Dispatch) RunTimeout() time.Duration {
	return parseDuration(d.Timeout, 10*time.Minute)
}
