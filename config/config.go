package config

import (
	"fmt"
	"time"
)

const (
	LocalEnv       = "local"
	DevelopmentEnv = "dev"
	ProductionEnv  = "prod"
)

const (
	CredentialPolicyDeny  = "deny"
	CredentialPolicyAllow = "allow"
)

type Config interface {
	App() AppConfig
	Auth() AuthConfig
	Server() ServerConfig
	Database() DatabaseConfig
	Redis() RedisConfig
	Cache() CacheConfig
	Logger() LoggerConfig
}

type AppConfig interface {
	Name() string
	Version() string
	Environment() string
	IsProduction() bool
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	TokenIssuer() string
}

type AuthConfig interface {
	MissingCredentialPolicy() string
	AllowMissingCredential() bool
	RoleModuleID() string
	AdminRoleName() string
	AdminDeniedModuleIDs() []string
	Modules() []ModuleEntry
	FederatedLoginEnabled() bool
	OIDCIssuer() string
	OIDCAudience() string
	OIDCPublicKeyPath() string
}

type ServerConfig interface {
	Host() string
	Port() int
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	IdleTimeout() time.Duration
	RequestTimeout() time.Duration
	MaxHeaderBytes() int
	AllowedOrigins() []string
	RateLimitPerMinute() int
}

type DatabaseConfig interface {
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	LogLevel() string
	EnableLog() bool
}

type RedisConfig interface {
	Host() string
	Port() int
	Address() string
	Password() string
	DB() int
	Prefix() string
}

type CacheConfig interface {
	Provider() string
	DefaultTTL() time.Duration
	ModuleCatalogTTL() time.Duration
}

type LoggerConfig interface {
	Level() string
	Format() string
	OutputPath() string
	MaxFileSizeMB() int
	MaxFileAgeDays() int
	MaxBackupFiles() int
	IsCompressEnabled() bool
}

// ModuleEntry is one entry of the module catalog seeded at startup.
type ModuleEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// config holds the actual configuration implementation
type config struct {
	AppCfg      appConfig      `yaml:"app"`
	AuthCfg     authConfig     `yaml:"auth"`
	ServerCfg   serverConfig   `yaml:"server"`
	DatabaseCfg databaseConfig `yaml:"database"`
	RedisCfg    redisConfig    `yaml:"redis"`
	CacheCfg    cacheConfig    `yaml:"cache"`
	LoggerCfg   loggerConfig   `yaml:"logger"`
}

func (c *config) App() AppConfig {
	return &c.AppCfg
}

func (c *config) Auth() AuthConfig {
	return &c.AuthCfg
}

func (c *config) Server() ServerConfig {
	return &c.ServerCfg
}

func (c *config) Database() DatabaseConfig {
	return &c.DatabaseCfg
}

func (c *config) Redis() RedisConfig {
	return &c.RedisCfg
}

func (c *config) Cache() CacheConfig {
	return &c.CacheCfg
}

func (c *config) Logger() LoggerConfig {
	return &c.LoggerCfg
}

type appConfig struct {
	NameStr        string `yaml:"name" env-default:"identity-service"`
	VersionStr     string `yaml:"version" env-default:"1.0.0"`
	EnvironmentStr string `env:"ENV" env-default:"local"`

	TokenIssuerStr string `yaml:"token_issuer" env-default:"identity-service"`

	AccessTokenExpiresInStr string `yaml:"access_token_expires_in" env-default:"24h"`
	AccessTokenSecretStr    string `env:"ACCESS_TOKEN_SECRET"`
}

func (c *appConfig) Name() string {
	return c.NameStr
}

func (c *appConfig) Version() string {
	return c.VersionStr
}

func (c *appConfig) Environment() string {
	return c.EnvironmentStr
}

func (c *appConfig) IsProduction() bool {
	return c.EnvironmentStr == ProductionEnv
}

func (c *appConfig) AccessTokenExpiresIn() time.Duration {
	duration, _ := time.ParseDuration(c.AccessTokenExpiresInStr)
	return duration
}

func (c *appConfig) AccessTokenSecret() string {
	return c.AccessTokenSecretStr
}

func (c *appConfig) TokenIssuer() string {
	return c.TokenIssuerStr
}

type authConfig struct {
	MissingCredentialPolicyStr string        `yaml:"missing_credential_policy" env:"MISSING_CREDENTIAL_POLICY" env-default:"deny"`
	RoleModuleIDStr            string        `yaml:"role_module_id" env-default:"1"`
	AdminRoleNameStr           string        `yaml:"admin_role_name" env-default:"Admin"`
	AdminDeniedModuleIDsArr    []string      `yaml:"admin_denied_module_ids" env:"ADMIN_DENIED_MODULE_IDS" env-separator:"," env-default:"3,6"`
	ModulesArr                 []ModuleEntry `yaml:"modules"`
	OIDCIssuerStr              string        `yaml:"oidc_issuer" env:"OIDC_ISSUER"`
	OIDCAudienceStr            string        `yaml:"oidc_audience" env:"OIDC_AUDIENCE"`
	OIDCPublicKeyPathStr       string        `yaml:"oidc_public_key_path" env:"OIDC_PUBLIC_KEY_PATH"`
}

func (a *authConfig) MissingCredentialPolicy() string {
	return a.MissingCredentialPolicyStr
}

func (a *authConfig) AllowMissingCredential() bool {
	return a.MissingCredentialPolicyStr == CredentialPolicyAllow
}

func (a *authConfig) RoleModuleID() string {
	return a.RoleModuleIDStr
}

func (a *authConfig) AdminRoleName() string {
	return a.AdminRoleNameStr
}

func (a *authConfig) AdminDeniedModuleIDs() []string {
	return a.AdminDeniedModuleIDsArr
}

func (a *authConfig) Modules() []ModuleEntry {
	if len(a.ModulesArr) == 0 {
		return DefaultModules()
	}
	return a.ModulesArr
}

func (a *authConfig) FederatedLoginEnabled() bool {
	return a.OIDCPublicKeyPathStr != ""
}

func (a *authConfig) OIDCIssuer() string {
	return a.OIDCIssuerStr
}

func (a *authConfig) OIDCAudience() string {
	return a.OIDCAudienceStr
}

func (a *authConfig) OIDCPublicKeyPath() string {
	return a.OIDCPublicKeyPathStr
}

// DefaultModules is the catalog used when the config file lists none.
func DefaultModules() []ModuleEntry {
	return []ModuleEntry{
		{ID: "1", Name: "Role Management"},
		{ID: "2", Name: "User Management"},
		{ID: "3", Name: "Admin Dashboard"},
		{ID: "4", Name: "Employee Analytics"},
		{ID: "5", Name: "Reports"},
		{ID: "6", Name: "Executive Dashboard"},
		{ID: "7", Name: "Surveys"},
		{ID: "8", Name: "Settings"},
	}
}

type serverConfig struct {
	HostStr            string   `yaml:"host" env-default:"0.0.0.0"`
	PortInt            int      `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeoutStr     string   `yaml:"read_timeout" env-default:"15s"`
	WriteTimeoutStr    string   `yaml:"write_timeout" env-default:"15s"`
	IdleTimeoutStr     string   `yaml:"idle_timeout" env-default:"120s"`
	RequestTimeoutStr  string   `yaml:"request_timeout" env-default:"10s"`
	MaxHeaderBytesInt  int      `yaml:"max_header_bytes" env-default:"1048576"` // 1MB
	AllowedOriginsArr  []string `yaml:"allowed_origins"`
	RateLimitPerMinInt int      `yaml:"rate_limit_per_minute" env-default:"100"`
}

func (s *serverConfig) Host() string {
	return s.HostStr
}

func (s *serverConfig) Port() int {
	return s.PortInt
}

func (s *serverConfig) ReadTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.ReadTimeoutStr)
	return duration
}

func (s *serverConfig) WriteTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.WriteTimeoutStr)
	return duration
}

func (s *serverConfig) IdleTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.IdleTimeoutStr)
	return duration
}

func (s *serverConfig) RequestTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.RequestTimeoutStr)
	return duration
}

func (s *serverConfig) AllowedOrigins() []string {
	return s.AllowedOriginsArr
}

func (s *serverConfig) MaxHeaderBytes() int {
	return s.MaxHeaderBytesInt
}

func (s *serverConfig) RateLimitPerMinute() int {
	return s.RateLimitPerMinInt
}

type databaseConfig struct {
	HostStr            string `env:"POSTGRES_HOST" env-default:"localhost"`
	PortStr            string `env:"POSTGRES_PORT" env-default:"5432"`
	UserStr            string `env:"POSTGRES_USER" env-default:"postgres"`
	PasswordStr        string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	NameStr            string `env:"POSTGRES_DBNAME" env-default:"identity"`
	SSLModeStr         string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxOpenConnsInt    int    `yaml:"max_open_conns" env-default:"25"`
	MaxIdleConnsInt    int    `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetimeStr string `yaml:"conn_max_lifetime" env-default:"5m"`
	EnableLoggingBool  bool   `yaml:"enable_logging" env-default:"false"`
	LogLevelStr        string `yaml:"log_level" env-default:"warn"`
}

func (d *databaseConfig) Host() string {
	return d.HostStr
}

func (d *databaseConfig) Port() string {
	return d.PortStr
}

func (d *databaseConfig) User() string {
	return d.UserStr
}

func (d *databaseConfig) Password() string {
	return d.PasswordStr
}

func (d *databaseConfig) Name() string {
	return d.NameStr
}

func (d *databaseConfig) SSLMode() string {
	return d.SSLModeStr
}

func (d *databaseConfig) MaxOpenConns() int {
	return d.MaxOpenConnsInt
}

func (d *databaseConfig) MaxIdleConns() int {
	return d.MaxIdleConnsInt
}

func (d *databaseConfig) ConnMaxLifetime() time.Duration {
	duration, _ := time.ParseDuration(d.ConnMaxLifetimeStr)
	return duration
}

func (d *databaseConfig) EnableLog() bool {
	return d.EnableLoggingBool
}

func (d *databaseConfig) LogLevel() string {
	return d.LogLevelStr
}

type cacheConfig struct {
	ProviderStr         string `yaml:"provider" env:"CACHE_PROVIDER" env-default:"redis"`
	DefaultTTLStr       string `yaml:"default_ttl" env-default:"5m"`
	ModuleCatalogTTLStr string `yaml:"module_catalog_ttl" env-default:"1h"`
}

func (c *cacheConfig) Provider() string {
	return c.ProviderStr
}

func (c *cacheConfig) DefaultTTL() time.Duration {
	duration, _ := time.ParseDuration(c.DefaultTTLStr)
	return duration
}

func (c *cacheConfig) ModuleCatalogTTL() time.Duration {
	duration, _ := time.ParseDuration(c.ModuleCatalogTTLStr)
	return duration
}

type loggerConfig struct {
	LevelStr          string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatStr         string `yaml:"format" env-default:"json"`
	OutputPathStr     string `yaml:"output_path" env-default:"stdout"`
	MaxFileSizeMBInt  int    `yaml:"max_file_size_mb" env-default:"100"`
	MaxFileAgeDaysInt int    `yaml:"max_file_age_days" env-default:"30"`
	MaxBackupFilesInt int    `yaml:"max_backup_files" env-default:"10"`
	EnableCompressed  bool   `yaml:"enable_compressed" env-default:"true"`
}

func (l *loggerConfig) Level() string {
	return l.LevelStr
}

func (l *loggerConfig) Format() string {
	return l.FormatStr
}

func (l *loggerConfig) OutputPath() string {
	return l.OutputPathStr
}

func (l *loggerConfig) MaxFileSizeMB() int {
	return l.MaxFileSizeMBInt
}

func (l *loggerConfig) MaxFileAgeDays() int {
	return l.MaxFileAgeDaysInt
}

func (l *loggerConfig) MaxBackupFiles() int {
	return l.MaxBackupFilesInt
}

func (l *loggerConfig) IsCompressEnabled() bool {
	return l.EnableCompressed
}

type redisConfig struct {
	HostStr     string `env:"REDIS_HOST" env-default:"localhost"`
	PortInt     int    `env:"REDIS_PORT" env-default:"6379"`
	PasswordStr string `env:"REDIS_PASSWORD"`
	DBInt       int    `env:"REDIS_DB" env-default:"0"`
	PrefixStr   string `yaml:"prefix" env-default:"identity:"`
}

func (r *redisConfig) Host() string {
	return r.HostStr
}

func (r *redisConfig) Port() int {
	return r.PortInt
}

func (r *redisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host(), r.Port())
}

func (r *redisConfig) Password() string {
	return r.PasswordStr
}

func (r *redisConfig) DB() int {
	return r.DBInt
}

func (r *redisConfig) Prefix() string {
	return r.PrefixStr
}
