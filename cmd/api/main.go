package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cartservice/internal/config"
	"cartservice/internal/domain/service"
	"cartservice/internal/handler"
	"cartservice/internal/infra/cache"
	"cartservice/internal/infra/client"
	"cartservice/internal/infra/db"
	"cartservice/internal/infra/messaging"
	infraRepo "cartservice/internal/infra/repository"
	"cartservice/internal/server"
	"cartservice/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	//.envは無くてもよい
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// 金額はJSONで数値として返す
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg, log); err != nil {
		log.Fatal("cart service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DBスキーマ
	if err := db.Migrate(cfg.DSN()); err != nil {
		return err
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	lineRepo := infraRepo.NewCartLineGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//外部サービス
	httpClient := client.NewHTTPClient()
	catalog := client.NewCatalogClient(cfg.CatalogBaseURL, httpClient, cfg.ExternalTimeout)
	var users service.UserClient = client.NewUserClient(cfg.UsersBaseURL, httpClient, cfg.ExternalTimeout)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		users = cache.NewUserCache(rdb, users, cfg.UserCacheTTL, log.Named("user-cache"))
		log.Info("user cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	managerOpts := []service.CartManagerOption{
		service.WithLogger(log.Named("cart")),
	}
	if len(cfg.KafkaBrokers) > 0 {
		reporter := messaging.NewKafkaAbandonedReporter(cfg.KafkaBrokers, cfg.KafkaAbandonedTopic)
		defer reporter.Close()
		managerOpts = append(managerOpts, service.WithAbandonedReporter(reporter))
		log.Info("abandoned cart events enabled", zap.String("topic", cfg.KafkaAbandonedTopic))
	}

	//Service / Usecase生成
	manager := service.NewCartManager(txm, cartRepo, lineRepo, catalog, managerOpts...)
	defer manager.WaitReports()
	stock := service.NewStockChecker(lineRepo, catalog)
	pricer := service.NewPriceAggregator(cartRepo, lineRepo, catalog, users)
	cartUC := usecase.NewCartUsecase(manager, stock, pricer, log.Named("usecase"))

	//Handler生成
	cartH := handler.NewCartHandler(cartUC, cfg.JWTSecret, log.Named("http"))
	healthH := handler.NewHealthHandler(sqlDB)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	e := server.New(log, cartH, healthH)
	return server.Start(ctx, e, addr, log)
}
