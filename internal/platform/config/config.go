package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string

	// Upstream feeds and the order submission endpoint.
	LocationFeedURL string
	CatalogFeedURL  string
	SubmitURL       string
}

// CatalogCacheTTL bounds how long catalog and location feed responses may
// be served from cache before a refetch.
var CatalogCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("CLEARCHECK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "clearcheck.audit"
	}

	return Server{
		Addr:            addr,
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    brokers,
		AuditTopic:      auditTopic,
		JWTSigningKey:   jwtSigningKey,
		LocationFeedURL: os.Getenv("LOCATION_FEED_URL"),
		CatalogFeedURL:  os.Getenv("CATALOG_FEED_URL"),
		SubmitURL:       os.Getenv("ORDER_SUBMIT_URL"),
	}
}
