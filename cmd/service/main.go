package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zkerkeb-class/payment-services-MalicknND/api"
	"github.com/zkerkeb-class/payment-services-MalicknND/db"
	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
	"github.com/zkerkeb-class/payment-services-MalicknND/stripe"
)

const eventDedupTTL = 24 * time.Hour

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 9001, "listen port")
	flag.String("mongo-url", "", "The URL of the MongoDB server (empty for in-memory ledger)")
	flag.String("mongo-db", "payments", "The name of the MongoDB database")
	flag.String("redis-url", "", "The URL of the Redis server (empty for in-memory event dedup)")
	flag.String("frontend-url", "", "base URL the checkout flow redirects back to")
	flag.String("log-level", "info", "log level (debug, info, warn, error)")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("PAYMENT")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// initialize the logger
	logger := initLogger(viper.GetString("log-level"))
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	mongoURL := viper.GetString("mongo-url")
	mongoDB := viper.GetString("mongo-db")
	redisURL := viper.GetString("redis-url")
	// the stripe configuration comes from the environment; the process
	// refuses to start without the secrets
	stripeConfig, err := stripe.NewConfig()
	if err != nil {
		logger.Fatal("invalid stripe configuration", zap.Error(err))
	}
	if frontendURL := viper.GetString("frontend-url"); frontendURL != "" {
		stripeConfig.FrontendURL = frontendURL
	}
	// pick the ledger backend
	var store ledger.Store
	if mongoURL != "" {
		mongo, err := db.New(mongoURL, mongoDB)
		if err != nil {
			logger.Fatal("could not connect to the MongoDB database", zap.Error(err))
		}
		defer mongo.Close()
		store = mongo
		logger.Info("using MongoDB ledger", zap.String("database", mongoDB))
	} else {
		store = ledger.NewMemoryStore()
		logger.Warn("no mongo-url provided, using in-memory ledger, balances are not durable")
	}
	// pick the event dedup backend
	var events stripe.EventStore
	if redisURL != "" {
		opts, err := goredis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal("invalid redis-url", zap.Error(err))
		}
		events = stripe.NewRedisEventStore(goredis.NewClient(opts), eventDedupTTL)
		logger.Info("using Redis event deduplication")
	} else {
		memEvents := stripe.NewMemoryEventStore(eventDedupTTL)
		defer memEvents.Close()
		events = memEvents
		logger.Warn("no redis-url provided, using in-memory event deduplication, " +
			"replayed events may be double applied after a restart")
	}
	// create the stripe service
	service, err := stripe.NewService(stripeConfig, stripe.NewClient(stripeConfig), store, events)
	if err != nil {
		logger.Fatal("failed to create the stripe service", zap.Error(err))
	}
	// create the local API server
	api.New(&api.Config{
		Host:   host,
		Port:   port,
		Ledger: store,
		Stripe: service,
	}).Start()
	// wait forever, as the server is running in a goroutine
	logger.Info("server started", zap.String("host", host), zap.Int("port", port))
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

func initLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
