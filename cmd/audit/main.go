// Package main is the entry point for the degree audit engine.
//
// The binary wires the full recompute pipeline: plan snapshot loading,
// requirement matching, fulfillment assignment, transactional persistence,
// and cached progress rollups. It is invoked per operation:
//
//	audit -migrate
//	audit -recompute <planID>
//	audit -progress <planProgramID>
//	audit -preview <planID>:<programID>
//	audit -plan-changed <planID>:<plannedCourseID>:<change>
//	audit -catalog-refreshed <academicYearID>
//
// Architecture follows Clean Architecture and DDD:
// - Domain: matching, assignment, and progress logic without external deps
// - Application: command/query handlers and event reactions
// - Infrastructure: postgres repositories, redis caches, event bus
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/planvault/degree-audit/config"
	"github.com/planvault/degree-audit/internal/application/command"
	"github.com/planvault/degree-audit/internal/application/eventhandler"
	"github.com/planvault/degree-audit/internal/application/query"
	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/internal/infrastructure/messaging"
	"github.com/planvault/degree-audit/internal/infrastructure/persistence/postgres"
	"github.com/planvault/degree-audit/internal/infrastructure/persistence/redis"
	"github.com/planvault/degree-audit/internal/infrastructure/service"
	"github.com/planvault/degree-audit/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		migrateFlag   = flag.Bool("migrate", false, "apply pending database migrations and exit")
		recomputeFlag = flag.String("recompute", "", "recompute fulfillments for the given plan id")
		progressFlag  = flag.String("progress", "", "print progress for the given plan-program link id")
		previewFlag   = flag.String("preview", "", "preview progress as <planID>:<programID> without persisting")
		changedFlag   = flag.String("plan-changed", "", "announce a plan change as <planID>:<plannedCourseID>:<change> and recompute")
		refreshedFlag = flag.String("catalog-refreshed", "", "announce a catalog reload for the given academic year id")
		skipCache     = flag.Bool("skip-cache", false, "bypass the progress cache on reads")
	)
	flag.Parse()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting degree audit engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE CONNECTION AND MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if *migrateFlag {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		status, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		applied := 0
		for _, m := range status {
			if m.IsApplied {
				applied++
			}
		}
		log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES AND CATALOG ACCESS
	// ─────────────────────────────────────────────────────────────────────────
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	programRepo := postgres.NewProgramRepository(dbConn)
	planRepo := postgres.NewPlanRepository(dbConn)
	fulfillmentRepo := postgres.NewFulfillmentRepository(dbConn)

	var courseSource fulfillment.CourseSource = catalog.NewQueryPlanner(catalogRepo)
	var catalogCache *redis.CatalogCache
	if redisCache != nil {
		catalogCache = redis.NewCatalogCache(redisCache, courseSource, cfg.Catalog.CacheTTL, log)
		courseSource = catalogCache
	}
	gateway := service.NewCatalogGatewayWithPolicy(courseSource, service.GatewayPolicy{
		MaxRetries:         cfg.Catalog.MaxRetries,
		RetryBaseDelay:     cfg.Catalog.RetryBaseDelay,
		RetryMaxDelay:      cfg.Catalog.RetryMaxDelay,
		BreakerThreshold:   cfg.Catalog.CircuitBreakerThreshold,
		BreakerTimeout:     cfg.Catalog.CircuitBreakerTimeout,
		BreakerHalfOpenMax: cfg.Catalog.CircuitBreakerHalfOpenMax,
	}, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. DOMAIN SERVICES AND EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	loader := plan.NewSnapshotLoader(planRepo, programRepo, catalogRepo)
	assigner := fulfillment.NewAssigner(log)
	calculator := fulfillment.NewCalculator(gateway, log)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = !cfg.Recompute.SyncEvents
	busConfig.WorkerPoolSize = cfg.Recompute.EventWorkers
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer eventBus.Close()

	var progressCache query.ProgressCache
	if redisCache != nil {
		progressCache = redis.NewProgressCache(redisCache)
		invalidator := eventhandler.NewOnFulfillmentsRecomputed(progressCache, log)
		if err := invalidator.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}
	if catalogCache != nil {
		refresher := eventhandler.NewOnCatalogRefreshed(catalogCache, log)
		if err := refresher.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	recomputeCmd := command.NewRecomputeFulfillmentsHandler(loader, fulfillmentRepo, assigner, eventBus, log)
	progressQuery := query.NewProgramProgressHandler(planRepo, loader, fulfillmentRepo, calculator, progressCache, log)
	previewQuery := query.NewPreviewProgressHandler(loader, assigner, calculator, log)

	reactor := eventhandler.NewOnPlanCoursesChanged(recomputeCmd, log)
	if err := reactor.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DISPATCH
	// ─────────────────────────────────────────────────────────────────────────
	switch {
	case *recomputeFlag != "":
		ctx, cancel := context.WithTimeout(ctx, cfg.Recompute.Timeout)
		defer cancel()

		result, err := recomputeCmd.Handle(ctx, command.RecomputeFulfillmentsCommand{PlanID: *recomputeFlag})
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}
		return printJSON(result)

	case *progressFlag != "":
		progress, err := progressQuery.Handle(ctx, query.ProgramProgressQuery{
			PlanProgramID: *progressFlag,
			SkipCache:     *skipCache,
		})
		if err != nil {
			return fmt.Errorf("progress query failed: %w", err)
		}
		return printJSON(progress)

	case *previewFlag != "":
		planID, programID, err := splitPreviewArg(*previewFlag)
		if err != nil {
			return err
		}
		progress, err := previewQuery.Handle(ctx, query.PreviewProgressQuery{
			PlanID:    planID,
			ProgramID: programID,
		})
		if err != nil {
			return fmt.Errorf("preview query failed: %w", err)
		}
		return printJSON(progress)

	case *changedFlag != "":
		planID, plannedCourseID, change, err := splitChangedArg(*changedFlag)
		if err != nil {
			return err
		}
		if err := eventBus.Publish(shared.NewPlanCoursesChangedEvent(planID, plannedCourseID, change)); err != nil {
			return fmt.Errorf("failed to publish plan change: %w", err)
		}
		// The deferred bus Close waits for the recompute reaction to finish.
		log.Info("plan change announced", logger.PlanID(planID), logger.String("change", change))
		return nil

	case *refreshedFlag != "":
		if err := eventBus.Publish(shared.NewCatalogRefreshedEvent(*refreshedFlag)); err != nil {
			return fmt.Errorf("failed to publish catalog refresh: %w", err)
		}
		log.Info("catalog refresh announced", logger.String("academic_year_id", *refreshedFlag))
		return nil

	default:
		flag.Usage()
		return errors.New("one of -migrate, -recompute, -progress, -preview, -plan-changed, or -catalog-refreshed is required")
	}
}

// splitChangedArg parses "<planID>:<plannedCourseID>:<change>".
func splitChangedArg(arg string) (planID, plannedCourseID, change string, err error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("invalid -plan-changed argument %q, expected <planID>:<plannedCourseID>:<change>", arg)
	}
	return parts[0], parts[1], parts[2], nil
}

// splitPreviewArg parses "<planID>:<programID>".
func splitPreviewArg(arg string) (planID, programID string, err error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid -preview argument %q, expected <planID>:<programID>", arg)
	}
	return parts[0], parts[1], nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
