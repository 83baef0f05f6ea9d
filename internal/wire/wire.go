package wire

import (
	"Herald/internal/api"
	"Herald/internal/api/config"
	"Herald/internal/api/handler"
	"Herald/internal/job"
	"Herald/internal/pkg/cron"
	"Herald/internal/pkg/kafka"
	mongodb "Herald/internal/pkg/mongo"
	"Herald/internal/pkg/redis"
	"Herald/internal/pkg/security"
	"Herald/internal/pkg/ws"
	"Herald/internal/repository"
	"Herald/internal/service"
	"errors"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	Registry      *ws.Registry
	SysBoxRepo    mongodb.SysBoxRepo
	NotifyService service.NotifyService
	KafkaManager  *kafka.ConsumerManager
	CronMgr       *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	sysBoxRepo, err := newSysBoxRepo(mongoDB, cfg.Notification)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepository(db)

	registry := ws.NewRegistry(registryOptions(cfg.WS)...)

	validator, err := security.NewCredentialValidator(cfg.Auth, redis.IsTokenRevoked)
	if err != nil {
		return nil, err
	}

	profileService := service.NewUserProfileService(userRepo, service.NewRedisProfileCache(), cfg.MinIO)
	notifyService := service.NewNotifyService(
		sysBoxRepo,
		postRepo,
		profileService,
		registry,
		time.Duration(cfg.Notification.WriteTimeout)*time.Second,
	)
	sysBoxService := service.NewSysBoxService(sysBoxRepo, profileService)

	handlers := &api.HandlersGroup{
		WSHandler:          handler.NewWsHandler(registry, validator, cfg.WS),
		SysBoxHandler:      handler.NewSysBoxHandler(sysBoxService),
		NotifyAdminHandler: handler.NewNotifyAdminHandler(notifyService, registry),
	}

	router := api.SetupRouter(handlers, validator, cfg)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, postRepo, notifyService)
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(cfg.WS.SweepSpec, job.NewWsIdleJob(registry))

	return &ApplicationContainer{
		Router:        router,
		DB:            db,
		Registry:      registry,
		SysBoxRepo:    sysBoxRepo,
		NotifyService: notifyService,
		KafkaManager:  kafkaMgr,
		CronMgr:       cronMgr,
	}, nil
}

// newSysBoxRepo memory 仅用于本地开发，重启即丢失
func newSysBoxRepo(mongoDB *mongo.Database, cfg config.NotificationConfig) (mongodb.SysBoxRepo, error) {
	switch cfg.Store {
	case "memory":
		log.Warn("notification store is in-memory, notifications will not survive restart")
		return mongodb.NewMemorySysBoxRepo(), nil
	case "", "mongo":
		if mongoDB == nil {
			return nil, errors.New("notification store mongo requires a mongo connection")
		}
		return mongodb.NewSysBoxRepo(mongoDB), nil
	default:
		return nil, errors.New("unknown notification store: " + cfg.Store)
	}
}

func registryOptions(cfg config.WSConfig) []ws.Option {
	opts := []ws.Option{
		ws.WithWriteTimeout(time.Duration(cfg.WriteTimeout) * time.Second),
	}
	if cfg.EvictIdle && cfg.IdleTimeout > 0 {
		opts = append(opts, ws.WithIdlePolicy(ws.EvictAfter(time.Duration(cfg.IdleTimeout)*time.Second)))
	}
	return opts
}
