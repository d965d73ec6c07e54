package api

import (
	"log"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/config"
	"github.com/blae-code/nomad-nexus-beta-sub003/infra/queue"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/api/rest/handlers"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/repository"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260830

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Net{},
		&domain.NetLog{},
		&domain.Operation{},
		&domain.DutyAssignment{},
		&domain.MemberProfile{},
		&domain.Presence{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// the composite index skips NULL operation ids; unlinked nets get
	// their own partial constraint
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS " + helper.NetCodeUnlinkedIndex +
			" ON nets (scope, code) WHERE operation_id IS NULL",
	).Error; err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error; err != nil {
		log.Printf("migration unlock error: %v", err)
	}
	log.Println("migration successful")

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaAuditTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	netRepo := repository.NewNetRepository(db)
	logRepo := repository.NewNetLogRepository(db, kafkaProducer)
	opRepo := repository.NewOperationRepository(db)
	dutyRepo := repository.NewDutyRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	memberRepo := repository.NewMemberRepository(db)

	// ---------- Services ----------
	netSvc := services.NewNetService(
		netRepo,
		logRepo,
		opRepo,
		dutyRepo,
		memberRepo,
		cfg.AdminAllowlist,
	)
	sweepSvc := services.NewSweepService(
		netRepo,
		logRepo,
		opRepo,
		dutyRepo,
		presenceRepo,
		memberRepo,
	)

	// ---------- Handlers ----------
	netHandler := handlers.NewNetHandler(netSvc, sweepSvc, authHelper)
	netHandler.SetupRoutes(app)

	// ---------- Presence feed ----------
	if cfg.KafkaPresenceTopic != "" {
		presenceHandler := handlers.NewPresenceHandler(presenceRepo)
		consumer := queue.NewKafkaConsumer(
			cfg.KafkaBroker,
			cfg.KafkaPresenceTopic,
			cfg.KafkaGroupID,
			cfg.KafkaUsername,
			cfg.KafkaPassword,
			presenceHandler,
		)
		go consumer.Listen()
	} else {
		log.Println("presence topic not configured - sweep will see no occupancy changes")
	}

	// ---------- Sweep ticker ----------
	interval := time.Duration(cfg.SweepIntervalMinutes) * time.Minute
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			summary, err := sweepSvc.Run(time.Now().UTC())
			if err != nil {
				log.Printf("sweep failed: %v", err)
				continue
			}
			log.Printf("sweep: events=%d provisioned=%d activated=%d closed=%d transfers=%d skipped=%d",
				summary.CheckedEvents,
				len(summary.ProvisionedNets),
				len(summary.ActivatedNets),
				len(summary.ClosedNets),
				len(summary.OwnerTransfers),
				len(summary.Skipped),
			)
		}
	}()

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}
