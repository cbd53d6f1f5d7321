package config

import (
	"os"
	"strconv"
	"time"
)

type NodeConfig struct {
	// Host is the host:port of the node's JSON-RPC listener.
	Host string
	User string
	Pass string
}

type Config struct {
	// Server configuration
	Environment string

	// BaseURL is the public URL of this gateway. It is embedded in
	// protocol payment URLs and in the JPPv2 X-Identity header.
	BaseURL string

	// Redis configuration (per-invoice payment locks, health check)
	RedisURL string

	// PubNub configuration (outbound payment events)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string
	EventChannel       string

	// Chain node RPC endpoints
	MainnetNode NodeConfig
	TestnetNode NodeConfig
	RegtestNode NodeConfig

	// IdentityKeyHex is the secp256k1 private key (hex) used to sign
	// JPPv2 responses. Empty means generate an ephemeral key at boot.
	IdentityKeyHex string

	// BIP70 x509 signing material. Both empty means requests go out unsigned.
	BIP70CertFile string
	BIP70KeyFile  string

	// APIKeyHash is the bcrypt hash the invoice-creation API key is
	// checked against. Empty disables the check (development only).
	APIKeyHash string

	// Protocol expiries
	BIP70Expiry   time.Duration
	OptionsExpiry time.Duration

	// PaymentLockTTL bounds how long a submission may hold the
	// per-invoice payment lock.
	PaymentLockTTL time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8090"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "paygate"),
		EventChannel:       getEnv("EVENT_CHANNEL", "payment-events"),

		// Chain nodes
		MainnetNode: NodeConfig{
			Host: getEnv("MAINNET_NODE_HOST", "localhost:8334"),
			User: getEnv("MAINNET_NODE_USER", ""),
			Pass: getEnv("MAINNET_NODE_PASS", ""),
		},
		TestnetNode: NodeConfig{
			Host: getEnv("TESTNET_NODE_HOST", "localhost:18334"),
			User: getEnv("TESTNET_NODE_USER", ""),
			Pass: getEnv("TESTNET_NODE_PASS", ""),
		},
		RegtestNode: NodeConfig{
			Host: getEnv("REGTEST_NODE_HOST", "localhost:18443"),
			User: getEnv("REGTEST_NODE_USER", ""),
			Pass: getEnv("REGTEST_NODE_PASS", ""),
		},

		// Signing
		IdentityKeyHex: getEnv("IDENTITY_KEY_HEX", ""),
		BIP70CertFile:  getEnv("BIP70_CERT_FILE", ""),
		BIP70KeyFile:   getEnv("BIP70_KEY_FILE", ""),

		// Internal API
		APIKeyHash: getEnv("API_KEY_HASH", ""),

		// Expiries
		BIP70Expiry:    getEnvAsDuration("BIP70_EXPIRY", "24h"),
		OptionsExpiry:  getEnvAsDuration("OPTIONS_EXPIRY", "15m"),
		PaymentLockTTL: getEnvAsDuration("PAYMENT_LOCK_TTL", "30s"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
