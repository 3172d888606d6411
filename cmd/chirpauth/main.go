package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/chirpnet/chirp-auth/adapters/events"
	"github.com/chirpnet/chirp-auth/adapters/store"
	"github.com/chirpnet/chirp-auth/adapters/tokenizer"
	"github.com/chirpnet/chirp-auth/adapters/verifier"
	"github.com/chirpnet/chirp-auth/internal/config"
	"github.com/chirpnet/chirp-auth/internal/logging"
	"github.com/chirpnet/chirp-auth/internal/rate"
	"github.com/chirpnet/chirp-auth/ports"
	"github.com/chirpnet/chirp-auth/service"
	transport "github.com/chirpnet/chirp-auth/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewLogger(cfg.Log.Level, "chirp-auth", cfg.Log.Env)

	gin.SetMode(cfg.Server.Mode)

	db, err := store.Open(cfg.Database.Path, cfg.Database.LogMode,
		store.WithNonceTTL(cfg.NonceTTL()),
	)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	signKey, err := loadSigningKey(cfg.JWT.KeyFile, log)
	if err != nil {
		log.Error("failed to load signing key", "error", err)
		os.Exit(1)
	}

	var (
		limiter  ports.Limiter
		eventPub ports.EventPublisher = events.NoopPublisher{}
	)

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Error("failed to parse redis URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)

		limiter = rate.NewRedis(redisClient, cfg.RateLimit.Points, cfg.RateWindow())

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewSlogLogger(log),
		)
		if err != nil {
			log.Error("failed to create redis publisher", "error", err)
			os.Exit(1)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		limiter = rate.NewMemory(cfg.RateLimit.Points, cfg.RateWindow())
		log.Warn("no redis configured; using in-process rate limiting and no event publishing")
	}

	authService := service.NewWalletAuthService(
		db, db, db,
		tokenizer.NewJWTTokenizer(signKey),
		verifier.New(),
		service.WithLimiter(limiter),
		service.WithEvents(eventPub),
		service.WithLogger(log),
		service.WithAccessTTL(cfg.AccessTTL()),
	)

	router := transport.SetupRouter(authService)

	log.Info("starting server", "address", cfg.Server.Address)
	if err := router.Run(cfg.Server.Address); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// loadSigningKey reads a PEM-encoded EC private key, or generates an
// ephemeral one when no file is configured. Ephemeral keys invalidate all
// sessions on restart.
func loadSigningKey(path string, log *slog.Logger) (*ecdsa.PrivateKey, error) {
	if path == "" {
		log.Warn("no signing key configured; generating an ephemeral key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("key file %s is not PEM encoded", path)
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC private key: %w", err)
	}
	return key, nil
}
