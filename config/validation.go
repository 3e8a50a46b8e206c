package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var moduleIDPattern = regexp.MustCompile(`^[1-9]\d*$`)

// Validate validates the configuration
func Validate(cfg Config) error {
	if err := validateApp(cfg.App()); err != nil {
		return fmt.Errorf("app config validation failed: %w", err)
	}

	if err := validateAuth(cfg.Auth()); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}

	if err := validateServer(cfg.Server()); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateDatabase(cfg.Database()); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if err := validateRedis(cfg.Redis()); err != nil {
		return fmt.Errorf("redis config validation failed: %w", err)
	}

	if err := validateCache(cfg.Cache()); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := validateLogger(cfg.Logger()); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}
	return nil
}

func validateApp(cfg AppConfig) error {
	switch cfg.Environment() {
	case LocalEnv, DevelopmentEnv, ProductionEnv:
	default:
		return fmt.Errorf("ENV=%s is invalid, only accept `%s`, `%s`, `%s`", cfg.Environment(), LocalEnv, DevelopmentEnv, ProductionEnv)
	}

	if cfg.TokenIssuer() == "" {
		return fmt.Errorf("token_issuer is required")
	}

	if cfg.AccessTokenExpiresIn() <= 0 {
		return fmt.Errorf("access_token_expires_in must be a positive duration")
	}

	if cfg.AccessTokenSecret() == "" {
		return fmt.Errorf("access token secret is required, please set ACCESS_TOKEN_SECRET env variable")
	}

	if cfg.IsProduction() && len(cfg.AccessTokenSecret()) < 32 {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be at least 32 characters in production")
	}
	return nil
}

func validateAuth(cfg AuthConfig) error {
	switch cfg.MissingCredentialPolicy() {
	case CredentialPolicyDeny, CredentialPolicyAllow:
	default:
		return fmt.Errorf("missing_credential_policy=%s is invalid, only accept `%s`, `%s`",
			cfg.MissingCredentialPolicy(), CredentialPolicyDeny, CredentialPolicyAllow)
	}

	if cfg.AdminRoleName() == "" {
		return fmt.Errorf("admin_role_name is required")
	}

	modules := cfg.Modules()
	ids := lo.Map(modules, func(m ModuleEntry, _ int) string { return m.ID })
	for _, m := range modules {
		if !moduleIDPattern.MatchString(m.ID) {
			return fmt.Errorf("module id %q must be a positive integer", m.ID)
		}
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("module %s must have a name", m.ID)
		}
	}
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return fmt.Errorf("duplicate module ids in catalog: %v", dup)
	}

	if !lo.Contains(ids, cfg.RoleModuleID()) {
		return fmt.Errorf("role_module_id %s is not part of the module catalog", cfg.RoleModuleID())
	}

	if unknown, _ := lo.Difference(cfg.AdminDeniedModuleIDs(), ids); len(unknown) > 0 {
		return fmt.Errorf("admin_denied_module_ids reference unknown modules: %v", unknown)
	}

	if cfg.FederatedLoginEnabled() {
		if cfg.OIDCIssuer() == "" || cfg.OIDCAudience() == "" {
			return fmt.Errorf("oidc_issuer and oidc_audience are required when oidc_public_key_path is set")
		}
		if _, err := os.Stat(cfg.OIDCPublicKeyPath()); err != nil {
			return fmt.Errorf("oidc public key file: %w", err)
		}
	}
	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("host is required")
	}

	if cfg.Host() != "0.0.0.0" && cfg.Host() != "localhost" {
		if net.ParseIP(cfg.Host()) == nil {
			return fmt.Errorf("host must be a valid IP address or 'localhost'")
		}
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if cfg.ReadTimeout() <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if cfg.WriteTimeout() <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if cfg.RequestTimeout() <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if cfg.RateLimitPerMinute() <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive")
	}
	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("database host is required")
	}

	if cfg.Name() == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.User() == "" {
		return fmt.Errorf("database user is required")
	}

	switch cfg.SSLMode() {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid ssl_mode: %s", cfg.SSLMode())
	}

	if cfg.MaxOpenConns() <= 0 {
		return fmt.Errorf("max_open_conns must be positive")
	}

	if cfg.MaxIdleConns() < 0 || cfg.MaxIdleConns() > cfg.MaxOpenConns() {
		return fmt.Errorf("max_idle_conns must be between 0 and max_open_conns")
	}

	if cfg.ConnMaxLifetime() <= 0 {
		return fmt.Errorf("conn_max_lifetime must be positive")
	}
	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("redis host is required")
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("redis port must be between 1 and 65535")
	}

	if cfg.DB() < 0 || cfg.DB() > 15 {
		return fmt.Errorf("redis db must be between 0 and 15")
	}
	return nil
}

func validateCache(cfg CacheConfig) error {
	switch cfg.Provider() {
	case "redis", "memory":
	default:
		return fmt.Errorf("cache provider must be 'redis' or 'memory', got %q", cfg.Provider())
	}

	if cfg.DefaultTTL() <= 0 {
		return fmt.Errorf("default_ttl must be positive")
	}

	if cfg.ModuleCatalogTTL() <= 0 {
		return fmt.Errorf("module_catalog_ttl must be positive")
	}
	return nil
}

func validateLogger(cfg LoggerConfig) error {
	switch strings.ToLower(cfg.Level()) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level())
	}

	switch strings.ToLower(cfg.Format()) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format())
	}

	if cfg.OutputPath() == "" {
		return fmt.Errorf("output_path is required")
	}

	if cfg.MaxFileSizeMB() <= 0 || cfg.MaxFileAgeDays() <= 0 || cfg.MaxBackupFiles() < 0 {
		return fmt.Errorf("log rotation settings must be positive")
	}
	return nil
}
