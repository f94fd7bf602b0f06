// Seed loads demo circles and plan records for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"circles-platform/internal/config"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
	pg "circles-platform/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	circleRepo := pg.NewPostgresCircleRepo(pool)
	planRepo := pg.NewPostgresPlanRepo(pool)
	offerRepo := pg.NewPostgresRescueOfferRepo(pool)

	ownerID := uuid.NewString()
	memberID := uuid.NewString()

	plan, err := model.NewPlanRecord(ownerID, model.PlanTierExtended)
	if err != nil {
		log.Fatalf("plan record: %v", err)
	}
	plan.ApplyTier(model.PlanTierExtended)
	if err := planRepo.Save(ctx, repository.NoTX, plan); err != nil {
		log.Fatalf("save plan: %v", err)
	}

	names := []string{"Family", "Old Friends", "Neighbours"}
	for i, name := range names {
		circle, err := model.NewCircle(uuid.NewString(), name, ownerID)
		if err != nil {
			log.Fatalf("circle: %v", err)
		}
		if err := circleRepo.Save(ctx, repository.NoTX, circle); err != nil {
			log.Fatalf("save circle: %v", err)
		}
		fmt.Printf("circle %q -> %s\n", name, circle.ID)

		// Give the last circle a pending rescue so the claim flow is testable.
		if i == len(names)-1 {
			circle.TransferBlock = true
			if err := circleRepo.Save(ctx, repository.NoTX, circle); err != nil {
				log.Fatalf("flag circle: %v", err)
			}
			offer, err := model.NewRescueOffer(uuid.NewString(), circle.ID, ownerID, time.Now().Add(72*time.Hour))
			if err != nil {
				log.Fatalf("offer: %v", err)
			}
			if err := offerRepo.Save(ctx, repository.NoTX, offer); err != nil {
				log.Fatalf("save offer: %v", err)
			}
			fmt.Printf("rescue offer on %q, claimable by member %s\n", name, memberID)
		}
	}
	fmt.Println("seed complete")
}
