package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golobby/container/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cuesports/progression/internal/api"
	"github.com/cuesports/progression/internal/archive"
	"github.com/cuesports/progression/internal/config"
	"github.com/cuesports/progression/internal/events"
	"github.com/cuesports/progression/internal/metrics"
	"github.com/cuesports/progression/internal/repository"
	"github.com/cuesports/progression/internal/repository/httpclient"
	"github.com/cuesports/progression/internal/repository/lock"
	mongostore "github.com/cuesports/progression/internal/repository/mongo"
	"github.com/cuesports/progression/internal/repository/postgres"
	"github.com/cuesports/progression/internal/service"
)

// registerDependencies wires every component into a golobby/container/v3
// container, the pack's dependency-injection idiom (grounded on
// replay-api's pkg/infra/ioc.ContainerBuilder). Each singleton resolver
// pulls its own dependencies back out of c via Resolve rather than
// declaring them as function parameters.
func registerDependencies(c container.Container) error {
	if err := c.Singleton(func() (*sql.DB, error) {
		return config.NewDatabaseConnection(config.LoadDatabaseConfig())
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (repository.MatchStore, error) {
		var db *sql.DB
		if err := c.Resolve(&db); err != nil {
			return nil, err
		}
		return postgres.NewMatchStore(db), nil
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (*mongo.Collection, error) {
		collection, _, err := config.NewMongoCollection(config.LoadMongoConfig())
		return collection, err
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (repository.BracketStore, error) {
		var collection *mongo.Collection
		if err := c.Resolve(&collection); err != nil {
			return nil, err
		}
		return mongostore.NewBracketStore(collection), nil
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() repository.TournamentStore {
		baseURL := getEnv("TOURNAMENT_SERVICE_URL", "http://localhost:8081")
		return httpclient.NewTournamentClient(baseURL)
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (*redis.Client, error) {
		return config.NewRedisClient(config.LoadRedisConfig())
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (*lock.EntityLock, error) {
		var client *redis.Client
		if err := c.Resolve(&client); err != nil {
			return nil, err
		}
		return lock.NewEntityLock(client, config.LoadRedisConfig().LockTTL), nil
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (*lock.IdempotencyCache, error) {
		var client *redis.Client
		if err := c.Resolve(&client); err != nil {
			return nil, err
		}
		return lock.NewIdempotencyCache(client, config.LoadRedisConfig().IdemTTL), nil
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() *events.Publisher {
		return events.NewPublisher(config.LoadEventBusConfig().Brokers)
	}); err != nil {
		return err
	}

	if err := c.Singleton(func() (*archive.Archiver, error) {
		cfg := config.LoadArchiveConfig()
		s3Client, err := config.NewS3Client(cfg)
		if err != nil {
			return nil, err
		}
		return archive.NewArchiver(s3Client, cfg.Bucket), nil
	}); err != nil {
		return err
	}

	return c.Singleton(func() (*service.Coordinator, error) {
		var matches repository.MatchStore
		if err := c.Resolve(&matches); err != nil {
			return nil, err
		}
		var brackets repository.BracketStore
		if err := c.Resolve(&brackets); err != nil {
			return nil, err
		}
		var tournaments repository.TournamentStore
		if err := c.Resolve(&tournaments); err != nil {
			return nil, err
		}
		var entityLock *lock.EntityLock
		if err := c.Resolve(&entityLock); err != nil {
			return nil, err
		}
		var idempotency *lock.IdempotencyCache
		if err := c.Resolve(&idempotency); err != nil {
			return nil, err
		}
		var publisher *events.Publisher
		if err := c.Resolve(&publisher); err != nil {
			return nil, err
		}
		var archiver *archive.Archiver
		if err := c.Resolve(&archiver); err != nil {
			return nil, err
		}

		return &service.Coordinator{
			Matches:     matches,
			Brackets:    brackets,
			Tournaments: tournaments,
			Locks:       entityLock,
			Idempotency: idempotency,
			Publisher:   publisher,
			Archiver:    archiver,
		}, nil
	})
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func main() {
	c := container.New()
	if err := registerDependencies(c); err != nil {
		log.Fatalf("failed to wire dependencies: %v", err)
	}

	var coordinator *service.Coordinator
	if err := c.Resolve(&coordinator); err != nil {
		log.Fatalf("failed to resolve coordinator: %v", err)
	}
	var matches repository.MatchStore
	if err := c.Resolve(&matches); err != nil {
		log.Fatalf("failed to resolve match store: %v", err)
	}
	var brackets repository.BracketStore
	if err := c.Resolve(&brackets); err != nil {
		log.Fatalf("failed to resolve bracket store: %v", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	router := api.NewRouter(coordinator, matches, brackets)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsPort := getEnv("METRICS_PORT", "9090")
	go func() {
		log.Printf("metrics endpoint listening on :%s", metricsPort)
		if err := http.ListenAndServe(":"+metricsPort, metricsMux); err != nil {
			log.Printf("metrics server failed: %v", err)
		}
	}()

	port := getEnv("SERVICE_PORT", "8085")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Progression service starting on port %s", port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
