package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/config"
	"github.com/FleetGuardian/FleetGuardian/internal/common/db"
	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/FleetGuardian/FleetGuardian/internal/common/middleware"
	"github.com/FleetGuardian/FleetGuardian/internal/common/server"
	"github.com/FleetGuardian/FleetGuardian/internal/common/tracing"
	"github.com/FleetGuardian/FleetGuardian/internal/defect"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"github.com/FleetGuardian/FleetGuardian/internal/inspection"
	"github.com/FleetGuardian/FleetGuardian/internal/vehicle"
	"github.com/gin-gonic/gin"
)

var (
	configPath = flag.String("config", "configs/inspection-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path, cfg.Log.Driver)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&identity.User{},
		&vehicle.Vehicle{},
		&defect.Defect{},
		&inspection.Record{},
		&inspection.ChecklistItem{},
		&inspection.CarriedDefect{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 组装领域服务
	policy := identity.DefaultPolicy()

	identitySvc := identity.NewService(identity.NewRepo(gormDB), cfg.Auth)

	vehicleRepo := vehicle.NewRepo(gormDB)
	registry := vehicle.NewCheckedRegistry(vehicleRepo)

	defectSvc := defect.NewService(defect.NewRepo(gormDB), policy, log)

	inspectionSvc := inspection.NewService(
		inspection.NewRepo(gormDB),
		defectSvc,
		registry,
		identitySvc,
		policy,
		log,
	)

	// 入口限流：local 为进程内令牌桶，redis 为集中式固定窗口
	opts := []func(*server.RunHTTPOptions){}
	if cfg.RateLimit.Enabled {
		var limiter middleware.RateLimiter
		switch cfg.RateLimit.Store {
		case "redis":
			client := middleware.NewRedisClient(
				cfg.Redis.Host,
				cfg.Redis.Port,
				cfg.Redis.Password,
				cfg.Redis.DB,
				cfg.Redis.PoolSize,
			)
			limiter = middleware.NewRedisWindow(
				client,
				cfg.Server.Name,
				time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
				cfg.RateLimit.MaxRequests,
				log,
			)
		default:
			limiter = middleware.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		}
		opts = append(opts, server.WithRateLimiter(limiter))
	}

	// 启动统一的 HTTP 服务模板
	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) error {
		identity.NewHTTPServer(identitySvc).RegisterRoutes(r)
		vehicle.NewHTTPServer(vehicleRepo).RegisterRoutes(r)
		defect.NewHTTPServer(defectSvc).RegisterRoutes(r)
		inspection.NewHTTPServer(inspectionSvc).RegisterRoutes(r)
		return nil
	}, opts...); err != nil {
		log.Fatalf("inspection-service exited with error: %v", err)
	}
}
