package main

import (
	"context"
	"time"

	"slotwise/internal/bookings/events"
	bookinghandler "slotwise/internal/bookings/handler"
	bookingrepo "slotwise/internal/bookings/repository"
	bookingservice "slotwise/internal/bookings/service"
	bookingvalidator "slotwise/internal/bookings/validator"
	eventtypehandler "slotwise/internal/eventtypes/handler"
	eventtyperepo "slotwise/internal/eventtypes/repository"
	eventtypeservice "slotwise/internal/eventtypes/service"
	eventtypevalidator "slotwise/internal/eventtypes/validator"
	schedulehandler "slotwise/internal/schedules/handler"
	schedulerepo "slotwise/internal/schedules/repository"
	"slotwise/internal/schedules/resolver"
	scheduleservice "slotwise/internal/schedules/service"
	schedulevalidator "slotwise/internal/schedules/validator"
	"slotwise/pkg/app"
	"slotwise/pkg/config"
	mongotx "slotwise/pkg/db/mongo"
	"slotwise/pkg/kafka"
)

const ServiceName = "slotwise"

const startupTimeout = 30 * time.Second

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting scheduling engine")
	cfg.SetMongo()

	var txManager mongotx.TransactionManager
	if cfg.MongoTxnDisabled {
		cfg.Log.Warn("Mongo transactions disabled, running callbacks without transactional guarantees")
		txManager = &mongotx.NoopTransactionManager{Client: cfg.Client.Mongo}
	} else {
		txManager = mongotx.NewTransactionManager(cfg.Client.Mongo)
	}

	eventTypeRepo := eventtyperepo.NewMongoEventTypeRepository(cfg, txManager)
	scheduleRepo := schedulerepo.NewMongoScheduleRepository(cfg, txManager)
	weeklyRepo := schedulerepo.NewMongoWeeklyHoursRepository(cfg)
	overrideRepo := schedulerepo.NewMongoDateOverrideRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg, txManager)
	lockRepo := bookingrepo.NewMongoBookingLockRepository(cfg)
	notesRepo := bookingrepo.NewMongoMeetingNotesRepository(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	ensureIndexes(ctx, cfg,
		eventTypeRepo.EnsureIndexes,
		scheduleRepo.EnsureIndexes,
		weeklyRepo.EnsureIndexes,
		overrideRepo.EnsureIndexes,
		bookingRepo.EnsureIndexes,
		lockRepo.EnsureIndexes,
		notesRepo.EnsureIndexes,
	)

	availabilityResolver := resolver.New(weeklyRepo, overrideRepo)

	eventTypeService := eventtypeservice.NewEventTypeService(
		eventTypeRepo,
		bookingRepo,
		eventtypevalidator.NewEventTypeValidator(cfg.Log),
		cfg,
	)
	scheduleService := scheduleservice.NewScheduleService(
		scheduleRepo,
		weeklyRepo,
		overrideRepo,
		schedulevalidator.NewScheduleValidator(cfg.Log),
		cfg,
	)

	if err := scheduleService.EnsureDefaultSchedule(ctx); err != nil {
		cfg.Log.Fatal("Failed to seed default schedule", "error", err)
	}

	serverApp := app.NewApplication()

	var publisher events.EventPublisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
		}
		publisher = events.NewKafkaPublisher(producer, cfg.Log)
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		})
		cfg.Log.Info("Kafka publisher initialized", "topic", cfg.KafkaTopic)
	} else {
		cfg.Log.Info("No Kafka brokers configured, booking events disabled")
	}

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		lockRepo,
		notesRepo,
		eventTypeRepo,
		scheduleRepo,
		availabilityResolver,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	serverApp.SetApp(cfg,
		eventtypehandler.NewEventTypeHandler(eventTypeService, cfg.DefaultHostID, cfg.Log),
		schedulehandler.NewScheduleHandler(scheduleService, availabilityResolver, cfg.DefaultHostID, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.DefaultHostID, cfg.Log),
	)
	serverApp.Run()
}

func ensureIndexes(ctx context.Context, cfg *config.Config, fns ...func(context.Context) error) {
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			cfg.Log.Fatal("Failed to ensure indexes", "error", err)
		}
	}
}
