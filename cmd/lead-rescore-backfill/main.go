package main

import (
	"context"
	"time"

	"funnel_backend/internal/adapters"
	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/repository"
	leadservice "funnel_backend/internal/leads/service"
	"funnel_backend/internal/rules"
	"funnel_backend/platform/config"
	"funnel_backend/platform/db"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead rescore backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// Events published here have no subscribers; alerts are left to the live processes.
	eventBus := events.NewInMemoryBus(log)

	rulesModule, err := rules.NewModule(pool, nil, 0, eventBus, validator.New(), nil, log)
	if err != nil {
		log.Error("failed to initialize scoring rules module", "error", err)
		panic("failed to initialize scoring rules module: " + err.Error())
	}

	repo := repository.New(pool)
	svc := leadservice.New(repo, rulesModule.RuleSource(), adapters.NewFunnelOwnerResolver(pool), eventBus, log,
		leadservice.WithPhoneRegion(cfg.GetPhoneDefaultRegion()),
	)

	const batchSize = 100
	const delayBetweenOwners = 200 * time.Millisecond

	var owners, rescored, failed int
	cursor := uuid.Nil

	for {
		ids, err := repo.ListOwnerIDs(ctx, cursor, batchSize)
		if err != nil {
			log.Error("failed to list owners", "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}

		for _, ownerID := range ids {
			owners++
			cursor = ownerID

			n, err := svc.RescoreOwner(ctx, ownerID)
			rescored += n
			if err != nil {
				failed++
				log.Error("failed to rescore owner", "ownerId", ownerID, "rescored", n, "error", err)
				time.Sleep(time.Second)
				continue
			}
			log.Info("owner rescored", "ownerId", ownerID, "leads", n)
			time.Sleep(delayBetweenOwners)
		}
	}

	eventBus.Wait()
	log.Info("lead rescore backfill completed", "owners", owners, "leads", rescored, "failedOwners", failed)
}
