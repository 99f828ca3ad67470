package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"social-relay/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	OAuth       OAuth       `json:"oauth"`
	Provider    Provider    `json:"provider"`
	Media       Media       `json:"media"`
	Database    Database    `json:"database"`
	Events      Events      `json:"events"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port          int    `json:"port"`
	FrontendURL   string `json:"frontendURL"`
	SessionSecret string `json:"sessionSecret"`
	CookieSecure  bool   `json:"cookieSecure"`
	TLSEnabled    bool   `json:"tlsEnabled"`
	TLSCertFile   string `json:"tlsCertFile"`
	TLSKeyFile    string `json:"tlsKeyFile"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	LinkedIn OAuthClient `json:"linkedin"`
	Twitter  OAuthClient `json:"twitter"`
	YouTube  OAuthClient `json:"youtube"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Configured reports whether both halves of the client credential are present.
func (c OAuthClient) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Provider struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type Media struct {
	UploadDir string `json:"uploadDir"`
	MaxBytes  int64  `json:"maxBytes"`
	// UploadTimeoutSeconds bounds one whole media transfer, provider-side processing included.
	UploadTimeoutSeconds int `json:"uploadTimeoutSeconds"`
}

type Database struct {
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	MySql  Db     `json:"mysql"`
	Mongo  Db     `json:"mongo"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Events struct {
	Sinks []string `json:"sinks"`
	Topic string   `json:"topic"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

const (
	defaultPort           = 4000
	defaultFrontendURL    = "http://localhost:5173"
	defaultTimeoutSeconds = 15
	defaultUploadDir      = "uploads"
	defaultMaxBytes       = 512 << 20
	defaultTopic          = "post-events"

	defaultUploadTimeoutSeconds = 600
)

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	Apply(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

// Apply layers environment overrides and defaults onto c.
func Apply(c *Config) {
	initApp(c)
	initOAuth(c)
	initProvider(c)
	initMedia(c)
	initDatabase(c)
	initEvents(c)
	if c.Logger.Level != "" {
		logger.SetLevel(c.Logger.Level)
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = defaultPort
	}
	C.App.FrontendURL = getConfigValue(C.App.FrontendURL, "FRONTEND_URL", defaultFrontendURL)
	C.App.SessionSecret = getConfigValue(C.App.SessionSecret, "SESSION_SECRET", "")

	if v, ok := parseBool(os.Getenv("TLS_ENABLED")); ok {
		C.App.TLSEnabled = v
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	// Prefer local certs if TLS enabled and paths not provided
	if C.App.TLSEnabled {
		if C.App.TLSCertFile == "" {
			if _, err := os.Stat("certs/localhost.crt"); err == nil {
				C.App.TLSCertFile = "certs/localhost.crt"
			}
		}
		if C.App.TLSKeyFile == "" {
			if _, err := os.Stat("certs/localhost.key"); err == nil {
				C.App.TLSKeyFile = "certs/localhost.key"
			}
		}
		C.App.CookieSecure = true
		logger.GetLogger().WithFields(map[string]interface{}{"cert": C.App.TLSCertFile, "key": C.App.TLSKeyFile}).Info("TLS enabled via configuration")
	}
	if v, ok := parseBool(os.Getenv("COOKIE_SECURE")); ok {
		C.App.CookieSecure = v
	}
	if C.App.SessionSecret == "" {
		logger.GetLogger().Warn("App.SessionSecret not set; sessions will not survive a restart. Provide SESSION_SECRET via environment.")
	}
}

func initOAuth(C *Config) {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://localhost:%d", scheme, C.App.Port)

	li := &C.OAuth.LinkedIn
	li.ClientID = getConfigValue(li.ClientID, "LINKEDIN_CLIENT_ID", "")
	li.ClientSecret = getConfigValue(li.ClientSecret, "LINKEDIN_CLIENT_SECRET", "")
	li.RedirectURI = getConfigValue(li.RedirectURI, "LINKEDIN_REDIRECT_URI", base+"/auth/linkedin/callback")

	tw := &C.OAuth.Twitter
	tw.ClientID = getConfigValue(tw.ClientID, "TWITTER_API_KEY", "")
	tw.ClientSecret = getConfigValue(tw.ClientSecret, "TWITTER_API_SECRET", "")
	tw.RedirectURI = getConfigValue(tw.RedirectURI, "TWITTER_CALLBACK_URL", base+"/auth/twitter/callback")

	yt := &C.OAuth.YouTube
	yt.ClientID = getConfigValue(yt.ClientID, "YOUTUBE_CLIENT_ID", "")
	yt.ClientSecret = getConfigValue(yt.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	yt.RedirectURI = getConfigValue(yt.RedirectURI, "YOUTUBE_REDIRECT_URI", base+"/auth/youtube/callback")

	// Prefer https redirect URIs when TLS enabled
	if C.App.TLSEnabled {
		for _, client := range []*OAuthClient{li, tw, yt} {
			if !hasHTTPS(client.RedirectURI) {
				client.RedirectURI = toHTTPSCallback(client.RedirectURI)
			}
		}
	}
}

func initProvider(C *Config) {
	if v := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			C.Provider.TimeoutSeconds = n
		}
	}
	if C.Provider.TimeoutSeconds <= 0 {
		C.Provider.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func initMedia(C *Config) {
	C.Media.UploadDir = getConfigValue(C.Media.UploadDir, "UPLOAD_DIR", defaultUploadDir)
	if v := os.Getenv("MEDIA_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			C.Media.MaxBytes = n
		}
	}
	if C.Media.MaxBytes <= 0 {
		C.Media.MaxBytes = defaultMaxBytes
	}
	if v := os.Getenv("MEDIA_UPLOAD_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			C.Media.UploadTimeoutSeconds = n
		}
	}
	if C.Media.UploadTimeoutSeconds <= 0 {
		C.Media.UploadTimeoutSeconds = defaultUploadTimeoutSeconds
	}
}

func initDatabase(C *Config) {
	C.Database.Vendor = strings.ToLower(getConfigValue(C.Database.Vendor, "DB_VENDOR", ""))

	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = getEnv("DB_PORT", "5432")
	}

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}

	if C.Database.MySql.Host == "" {
		C.Database.MySql.Host = getEnv("MYSQL_HOST", "localhost")
	}
	if C.Database.MySql.Port == "" {
		C.Database.MySql.Port = getEnv("MYSQL_PORT", "3306")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = getEnv("MONGO_HOST", "localhost")
	}
	if C.Database.Mongo.Port == "" {
		C.Database.Mongo.Port = getEnv("MONGO_PORT", "27017")
	}
	logger.GetLogger().WithField("vendor", C.Database.Vendor).Info("Database configuration")
}

func initEvents(C *Config) {
	if v := os.Getenv("EVENT_SINKS"); v != "" {
		C.Events.Sinks = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				C.Events.Sinks = append(C.Events.Sinks, strings.ToLower(s))
			}
		}
	}
	C.Events.Topic = getConfigValue(C.Events.Topic, "EVENT_TOPIC", defaultTopic)
	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "localhost")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
}

// getConfigValue gets value from env first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Otherwise use config value if set and not a placeholder
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "1", "true", "TRUE", "True":
		return true, true
	case "0", "false", "FALSE", "False":
		return false, true
	}
	return false, false
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }
func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + u[7:]
	}
	return u
}
