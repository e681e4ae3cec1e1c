package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/alert"
	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/student"
	"schoolbridge/internal/infra/config"
	idb "schoolbridge/internal/infra/database"
	"schoolbridge/internal/infra/database/inmem"
	"schoolbridge/internal/infra/database/mongodb"
	"schoolbridge/internal/infra/httpapi"
	"schoolbridge/internal/infra/logger"
	"schoolbridge/internal/infra/push/expo"
	"schoolbridge/internal/infra/scheduler"
	"schoolbridge/internal/infra/telegram"
	"schoolbridge/internal/infra/translate"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 15 * time.Second

type repositories struct {
	classrooms    classroom.Repository
	students      student.Repository
	parents       parent.Repository
	notifications notification.Repository
}

func main() {
	fmt.Println("SchoolBridge notification service starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"store":       cfg.NotificationStore,
		"log_level":   cfg.LogLevel,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStores, err := openStores(ctx, cfg, mainLogger)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open storage")
	}
	defer closeStores()

	// Outbound adapters
	translator := translate.NewClient(translate.Options{
		URL:        cfg.TranslateAPIURL,
		APIKey:     cfg.TranslateAPIKey,
		Timeout:    cfg.TranslateTimeout,
		RetryDelay: cfg.TranslateRetryDelay,
	}, logger.Component("translate"))
	pusher := expo.NewGateway(expo.Options{
		URL:         cfg.ExpoPushURL,
		AccessToken: cfg.ExpoAccessToken,
		Timeout:     cfg.PushTimeout,
	}, logger.Component("expo"))

	// Services
	resolver := app.NewRecipientResolver(repos.classrooms, repos.students, repos.parents, cfg.DefaultLanguage, logger.Component("recipients"))
	notificationService := app.NewNotificationService(resolver, repos.notifications, translator, pusher, cfg.DefaultLanguage, logger.Component("notifications"))
	classroomService := app.NewClassroomService(repos.classrooms, repos.students, repos.parents, notificationService, logger.Component("classrooms"))
	reminderService := app.NewReminderService(repos.classrooms, notificationService, cfg.ReminderWindow, logger.Component("reminders"))
	mainLogger.Info("Services initialized")

	// Optional operator bot
	var alerter alert.Alerter = alert.Nop{}
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		botLogger := logger.Component("telegram")
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		alerter = telegram.NewAdminAlerter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID)
	}

	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		alerter,
		logger.Component("scheduler"),
		cfg.CronSpecReminderScan,
		cfg.ReminderScanTimeout,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	if bot != nil {
		adminService := app.NewAdminService(reminderScheduler, cfg.AdminTelegramID)
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(bot, adminService, botLogger)
		telegram.RegisterAdminHandlers(bot, adminService, botLogger)
		go bot.Start()
		mainLogger.Info("Telegram admin bot started")
	}

	server := httpapi.NewServer(httpapi.Options{
		Address:       cfg.HTTPAddr,
		JWTSecret:     []byte(cfg.JWTSecret),
		Classrooms:    classroomService,
		Notifications: notificationService,
		Logger:        logger.Component("http"),
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	mainLogger.Info("Application setup complete")

	select {
	case <-ctx.Done():
		mainLogger.Info("Shutting down application...")
	case err := <-serverErr:
		if err != nil {
			mainLogger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	reminderScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully")
}

// openStores builds the repositories for the configured driver and returns a
// function releasing their connections.
func openStores(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (*repositories, func(), error) {
	if cfg.NotificationStore == config.StoreMemory {
		log.Warn("Using in-memory storage, data is lost on restart")
		return &repositories{
			classrooms:    inmem.NewClassroomRepository(),
			students:      inmem.NewStudentRepository(),
			parents:       inmem.NewParentRepository(),
			notifications: inmem.NewNotificationRepository(),
		}, func() {}, nil
	}

	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, err
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Warn("Could not create MongoDB indexes")
	}
	log.WithField("database", cfg.MongoDatabase).Info("MongoDB connection established")

	repos := &repositories{
		classrooms:    mongodb.NewClassroomRepository(db),
		students:      mongodb.NewStudentRepository(db),
		parents:       mongodb.NewParentRepository(db),
		notifications: mongodb.NewNotificationRepository(db),
	}
	closers := []func(){disconnectMongo(client, log)}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NotificationStore == config.StorePostgres {
		pg, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, closePostgres(pg, log))
		if err := idb.EnsureSchema(ctx, pg); err != nil {
			closeAll()
			return nil, nil, err
		}
		repos.notifications = idb.NewPostgresNotificationRepository(pg)
		log.Info("PostgreSQL notification store initialized")
	}
	return repos, closeAll, nil
}

func disconnectMongo(client *mongo.Client, log *logrus.Entry) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Error closing MongoDB connection")
		}
	}
}

func closePostgres(db *sql.DB, log *logrus.Entry) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Error closing PostgreSQL connection")
		}
	}
}
