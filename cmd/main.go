package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sokomart/grocery-api/internal/app"
	"github.com/sokomart/grocery-api/internal/config"
	"github.com/sokomart/grocery-api/internal/handler"
	"github.com/sokomart/grocery-api/internal/notification"
	"github.com/sokomart/grocery-api/internal/postgres"
	"github.com/sokomart/grocery-api/internal/repo"
	"github.com/sokomart/grocery-api/internal/service"
	"github.com/sokomart/grocery-api/pkg/cache"
	"github.com/sokomart/grocery-api/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Grocery API
// @version         1.0
// @description     Order placement and notification backend
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	panicIfErr("failed to run migrations", postgres.Migrate(conf.Postgres))

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	storeRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	dispatcher := notification.NewDispatcher(logger, conf.Kafka)
	defer dispatcher.Close()

	orderService := service.NewOrderService(logger, txManager, storeRepo, storeRepo, storeRepo, dispatcher, orderCache)

	smsClient := notification.NewSMSClient(logger, conf.SMS)
	worker := notification.NewWorker(logger, conf.Kafka, orderService, storeRepo, smsClient)
	httpHandler := handler.NewHTTPHandler(logger, orderService)
	handler.RegisterMetrics()

	app := app.New(logger, conf, db)

	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(worker)
	app.SetStarters(orderCache, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
