package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"subscription-ledger/internal/config"
	"subscription-ledger/internal/domain"
	pg "subscription-ledger/internal/infra/db/postgres"
	"subscription-ledger/internal/infra/logging"
	"subscription-ledger/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	registryRepo := pg.NewRegistryRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	tm := pg.NewTxManager(pool)

	registryUC := usecase.NewRegistryUseCase(registryRepo, tm, logger)
	planUC := usecase.NewPlanUseCase(registryRepo, planRepo, tm, logger)

	authority := cfg.Server.Authority
	if authority == "" {
		log.Fatalf("server.bootstrap_authority must be set before seeding")
	}

	if _, err := registryUC.Initialize(ctx, authority); err != nil {
		if !errors.Is(err, domain.ErrAlreadyInitialized) {
			log.Fatalf("initialize registry: %v", err)
		}
		fmt.Println("registry already initialized")
	} else {
		fmt.Printf("registry initialized, authority=%s\n", authority)
	}

	// If plans already exist, do nothing.
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (period=%s, price=%d, max=%d)\n", p.Name, p.Period(), p.PricePerPeriod, p.MaxSubscribers)
		}
		return
	}

	seed := []usecase.CreateInput{
		{Name: "Starter", Description: "Weekly starter plan", PricePerPeriod: 150_000, PeriodSeconds: 7 * 24 * 3600, MaxSubscribers: 1000},
		{Name: "Pro", Description: "Monthly pro plan", PricePerPeriod: 690_000, PeriodSeconds: 30 * 24 * 3600, MaxSubscribers: 500},
		{Name: "Ultra", Description: "Quarterly ultra plan", PricePerPeriod: 1_890_000, PeriodSeconds: 90 * 24 * 3600, MaxSubscribers: 100},
	}

	for _, in := range seed {
		in.PlanID = uuid.NewString()
		p, err := planUC.Create(ctx, authority, in)
		if err != nil {
			log.Fatalf("create plan %q: %v", in.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, period=%s, price=%d)\n", p.Name, p.ID, p.Period(), p.PricePerPeriod)
	}

	fmt.Println("Seeding complete.")
}
