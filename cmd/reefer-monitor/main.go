package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reefer-monitor/internal/config"
	httpapi "reefer-monitor/internal/http"
	"reefer-monitor/internal/logger"
	"reefer-monitor/internal/service"
	"reefer-monitor/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file (overrides env)")
	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		c, err := config.LoadFile(*configFile)
		if err != nil {
			panic(err)
		}
		cfg = c
	} else {
		cfg = config.Load()
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "reefer-monitor")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Samsara.APIToken == "" {
		log.Warn("SAMSARA_API_TOKEN is empty, vendor API calls will fail with 401")
	}

	// 响应缓存：默认内存，生产可切 Redis（多实例共享 TTL 缓存）
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPass,
			DB:       cfg.Cache.RedisDB,
		})
		kv = store.NewRedisKV(redisClient)
		log.Info("Using redis response cache", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		kv = store.NewMemoryKV()
	}

	client := service.NewSamsaraClient(cfg.Samsara.BaseURL, cfg.Samsara.APIToken, cfg.Samsara.Timeout.Std(), log)
	catalog := service.NewCatalogService(client, kv, cfg.Cache.CatalogTTL.Std(), cfg.Cache.OrgTTL.Std(), log)
	history := service.NewHistoryService(client, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 实时轮询（可选）：固定间隔 + 轮数上限，回调只记日志，
	// 展示层通过 /current 自行拉取
	var poller *service.LivePoller
	if cfg.Live.Enabled && cfg.Live.TemperatureSensorID != 0 {
		poller = service.NewLivePoller(
			history,
			cfg.Live.Interval.Std(),
			cfg.Live.Cycles,
			cfg.Live.TemperatureSensorID,
			cfg.Live.DoorSensorID,
			func(_ context.Context, snap service.LiveSnapshot) {
				fields := []zap.Field{zap.Int("cycle", snap.Cycle)}
				if snap.Temperature != nil && snap.Temperature.AmbientTemperature != nil {
					fields = append(fields, zap.Float64("temperature_milli_c", *snap.Temperature.AmbientTemperature))
				}
				if snap.Door != nil && snap.Door.DoorClosed != nil {
					fields = append(fields, zap.Bool("door_closed", *snap.Door.DoorClosed))
				}
				log.Info("Live snapshot", fields...)
			},
			log,
		)
		go poller.Run(ctx)
	}

	monitor := httpapi.NewMonitorHandler(catalog, history, poller, cfg.History, log)
	router := httpapi.NewRouter(log)
	router.RegisterMonitorRoutes(monitor)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if poller != nil {
		poller.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
