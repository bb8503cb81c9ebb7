package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/aq2208/goshop-api/configs"
	"github.com/aq2208/goshop-api/internal/adapter/cache"
	httpadapter "github.com/aq2208/goshop-api/internal/adapter/http"
	"github.com/aq2208/goshop-api/internal/adapter/http/middleware"
	"github.com/aq2208/goshop-api/internal/adapter/kafka"
	"github.com/aq2208/goshop-api/internal/adapter/paystack"
	"github.com/aq2208/goshop-api/internal/adapter/queue"
	"github.com/aq2208/goshop-api/internal/adapter/repo"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/aq2208/goshop-api/internal/security"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("app")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}
	if err := repo.RunMigrations(db, cfg.MySQL.MigrationsDir); err != nil {
		return nil, nil, err
	}

	log.Info("shop-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// gateway + webhook signature
	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	verifier := security.NewWebhookVerifier(cfg.Paystack.SecretKey)

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	paymentRepo := repo.NewMySQLPaymentRepo(db)
	userRepo := repo.NewMySQLUserRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	orderCache := cache.NewRedisOrderCache(rdb, cfg.Cache.TTL)

	// use cases
	createUC := usecase.NewCreateOrder(userRepo, orderRepo, idem, producer, cfg.Paystack.Currency)
	initializeUC := usecase.NewInitializePayment(orderRepo, userRepo, paymentRepo, gateway, producer,
		cfg.Paystack.CallbackURL, cfg.Paystack.Currency)
	verifyUC := usecase.NewVerifyPayment(paymentRepo, gateway, orderCache, producer)
	hookUC := usecase.NewHandleWebhook(verifier, verifyUC)

	// background consumers
	setupQueue(ch, verifyUC)
	setupKafkaListener(cfg, orderRepo, orderCache)

	// handlers + router + middleware
	oh := httpadapter.NewOrderHandler(createUC, orderRepo, orderCache)
	ph := httpadapter.NewPaymentHandler(initializeUC, verifyUC)
	wh := httpadapter.NewWebhookHandler(hookUC)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(oh, ph, wh, authz)

	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, verifyUC *usecase.VerifyPayment) {
	h := queue.NewReconcileHandler(verifyUC)

	router := queue.NewRouter(ch, queue.WithPrefetch(10), queue.WithTimeout(40*time.Second))
	router.Register(queue.ReconcileQueue, queue.JSONHandler[usecase.ReconcileTaskMsg]{HandleFunc: h.HandleReconcile})

	if err := router.Start(); err != nil {
		panic(err)
	}
}

func setupKafkaListener(cfg configs.Config, orders *repo.MySQLOrderRepo, orderCache *cache.RedisOrderCache) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		panic(err)
	}

	h := kafka.NewFulfillmentStatusHandler(orders, orderCache)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.FulfillmentTopic}, h.Handle, logging.New("kafka"))

	go func() {
		if err := consumer.Start(context.Background()); err != nil {
			logging.New("kafka").Error("consumer stopped", "err", err)
		}
	}()
}
