package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fanstake/squad-ledger/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	// Bootstrap role assignments applied at startup.
	OwnerAddress       string
	OracleAddress      string
	PlatformFeeAddress string
	PlatformFeeRateBps uint32

	// TicketLaxIndexCheck makes a ticket read at index 0 on an empty store
	// resolve to an uninitialized ticket instead of failing.
	TicketLaxIndexCheck bool

	CacheTTL time.Duration

	TreasuryBaseURL             string
	TreasuryAPIKey              string
	TreasuryTimeout             time.Duration
	TreasuryMaxRetries          int
	TreasuryCircuitEnabled      bool
	TreasuryCircuitFailureCount int
	TreasuryCircuitOpenTimeout  time.Duration
	TreasuryCircuitHalfOpenReq  int

	HeimdallBaseURL             string
	HeimdallIntrospectPath      string
	HeimdallTimeout             time.Duration
	HeimdallCircuitEnabled      bool
	HeimdallCircuitFailureCount int
	HeimdallCircuitOpenTimeout  time.Duration
	HeimdallCircuitHalfOpenReq  int

	ArchiveEnabled       bool
	ArchiveDBURL         string
	ArchiveWorkers       int
	ArchiveInsertTimeout time.Duration

	PprofEnabled           bool
	PprofAddr              string
	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	ownerAddress := strings.TrimSpace(getEnv("LEDGER_OWNER_ADDRESS", ""))
	if ownerAddress == "" {
		return Config{}, fmt.Errorf("LEDGER_OWNER_ADDRESS is required")
	}
	oracleAddress := strings.TrimSpace(getEnv("LEDGER_ORACLE_ADDRESS", ""))
	if oracleAddress == "" {
		return Config{}, fmt.Errorf("LEDGER_ORACLE_ADDRESS is required")
	}
	feeAddress := strings.TrimSpace(getEnv("LEDGER_PLATFORM_FEE_ADDRESS", ""))
	if feeAddress == "" {
		return Config{}, fmt.Errorf("LEDGER_PLATFORM_FEE_ADDRESS is required")
	}

	feeRateBps, err := getEnvAsInt("LEDGER_PLATFORM_FEE_RATE_BPS", 1000)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_PLATFORM_FEE_RATE_BPS: %w", err)
	}
	if feeRateBps < 0 || feeRateBps > 10000 {
		return Config{}, fmt.Errorf("LEDGER_PLATFORM_FEE_RATE_BPS must be within [0, 10000]")
	}

	ticketLaxIndexCheck, err := strconv.ParseBool(getEnv("TICKET_LAX_INDEX_CHECK", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TICKET_LAX_INDEX_CHECK: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	treasuryBaseURL := strings.TrimSpace(getEnv("TREASURY_BASE_URL", ""))
	if treasuryBaseURL == "" {
		return Config{}, fmt.Errorf("TREASURY_BASE_URL is required")
	}
	treasuryTimeout, err := time.ParseDuration(getEnv("TREASURY_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_TIMEOUT: %w", err)
	}
	if treasuryTimeout <= 0 {
		return Config{}, fmt.Errorf("TREASURY_TIMEOUT must be > 0")
	}
	treasuryMaxRetries, err := getEnvAsInt("TREASURY_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_MAX_RETRIES: %w", err)
	}
	if treasuryMaxRetries < 0 {
		return Config{}, fmt.Errorf("TREASURY_MAX_RETRIES must be >= 0")
	}
	treasuryCircuitEnabled, err := strconv.ParseBool(getEnv("TREASURY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_CIRCUIT_ENABLED: %w", err)
	}
	treasuryCircuitFailureCount, err := getEnvAsInt("TREASURY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if treasuryCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("TREASURY_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	treasuryCircuitOpenTimeout, err := time.ParseDuration(getEnv("TREASURY_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if treasuryCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("TREASURY_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	treasuryCircuitHalfOpenReq, err := getEnvAsInt("TREASURY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse TREASURY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if treasuryCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("TREASURY_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	heimdallTimeout, err := time.ParseDuration(getEnv("HEIMDALL_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HEIMDALL_TIMEOUT: %w", err)
	}
	heimdallCircuitEnabled, err := strconv.ParseBool(getEnv("HEIMDALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HEIMDALL_CIRCUIT_ENABLED: %w", err)
	}
	heimdallCircuitFailureCount, err := getEnvAsInt("HEIMDALL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse HEIMDALL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if heimdallCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("HEIMDALL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	heimdallCircuitOpenTimeout, err := time.ParseDuration(getEnv("HEIMDALL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HEIMDALL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if heimdallCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("HEIMDALL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	heimdallCircuitHalfOpenReq, err := getEnvAsInt("HEIMDALL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse HEIMDALL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if heimdallCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("HEIMDALL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	archiveEnabled, err := strconv.ParseBool(getEnv("ARCHIVE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ARCHIVE_ENABLED: %w", err)
	}
	archiveDBURL := strings.TrimSpace(getEnv("ARCHIVE_DB_URL", ""))
	if archiveEnabled && archiveDBURL == "" {
		return Config{}, fmt.Errorf("ARCHIVE_DB_URL is required when ARCHIVE_ENABLED=true")
	}
	archiveWorkers, err := getEnvAsInt("ARCHIVE_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse ARCHIVE_WORKERS: %w", err)
	}
	if archiveWorkers < 1 {
		return Config{}, fmt.Errorf("ARCHIVE_WORKERS must be >= 1")
	}
	archiveInsertTimeout, err := time.ParseDuration(getEnv("ARCHIVE_INSERT_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ARCHIVE_INSERT_TIMEOUT: %w", err)
	}
	if archiveInsertTimeout <= 0 {
		return Config{}, fmt.Errorf("ARCHIVE_INSERT_TIMEOUT must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "squad-ledger-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		OwnerAddress:       ownerAddress,
		OracleAddress:      oracleAddress,
		PlatformFeeAddress: feeAddress,
		PlatformFeeRateBps: uint32(feeRateBps),

		TicketLaxIndexCheck: ticketLaxIndexCheck,

		CacheTTL: cacheTTL,

		TreasuryBaseURL:             treasuryBaseURL,
		TreasuryAPIKey:              strings.TrimSpace(getEnv("TREASURY_API_KEY", "")),
		TreasuryTimeout:             treasuryTimeout,
		TreasuryMaxRetries:          treasuryMaxRetries,
		TreasuryCircuitEnabled:      treasuryCircuitEnabled,
		TreasuryCircuitFailureCount: treasuryCircuitFailureCount,
		TreasuryCircuitOpenTimeout:  treasuryCircuitOpenTimeout,
		TreasuryCircuitHalfOpenReq:  treasuryCircuitHalfOpenReq,

		HeimdallBaseURL:             getEnv("HEIMDALL_BASE_URL", "http://localhost:8081"),
		HeimdallIntrospectPath:      getEnv("HEIMDALL_INTROSPECT_PATH", "/v1/auth/introspect"),
		HeimdallTimeout:             heimdallTimeout,
		HeimdallCircuitEnabled:      heimdallCircuitEnabled,
		HeimdallCircuitFailureCount: heimdallCircuitFailureCount,
		HeimdallCircuitOpenTimeout:  heimdallCircuitOpenTimeout,
		HeimdallCircuitHalfOpenReq:  heimdallCircuitHalfOpenReq,

		ArchiveEnabled:       archiveEnabled,
		ArchiveDBURL:         archiveDBURL,
		ArchiveWorkers:       archiveWorkers,
		ArchiveInsertTimeout: archiveInsertTimeout,

		PprofEnabled:           pprofEnabled,
		PprofAddr:              pprofAddr,
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
