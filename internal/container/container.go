package container

import (
	"bjjvisits-backend/internal/config"
	"bjjvisits-backend/internal/draft"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/internal/service"
	"bjjvisits-backend/internal/service/auth"
	"bjjvisits-backend/pkg/database"
	"bjjvisits-backend/pkg/logger"
	"bjjvisits-backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	DraftStore   draft.Store
	Services     *service.Services
}

// New wires repositories and services around the shared database pool and
// Redis client. The Redis client is optional; without it the draft mirror
// falls back to an in-process store, which loses crash recovery across
// restarts but keeps the flow working.
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB, redisClient *redis.Client) (*Container, error) {
	repos := &repository.Repositories{
		Visit:   repository.NewVisitRepository(db),
		Voucher: repository.NewVoucherRepository(db),
		Academy: repository.NewAcademyRepository(db),
		Event:   repository.NewEventRepository(db),
		Finance: repository.NewFinanceRepository(db),
		User:    repository.NewUserRepository(db),
	}

	var drafts draft.Store
	if redisClient != nil {
		drafts = draft.NewRedisStore(redisClient)
	} else {
		log.Warn("Redis not configured, visit drafts will not survive restarts")
		drafts = draft.NewMemoryStore()
	}

	voucherService := service.NewVoucherService(repos.Voucher, cfg.PublicAppURL, log)
	visitService := service.NewVisitService(repos.Visit, voucherService, drafts, log)
	authService := auth.NewService(repos.User, cfg.JWTSecret, log)

	services := &service.Services{
		Visit:   visitService,
		Voucher: voucherService,
		Auth:    authService,
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		DraftStore:   drafts,
		Services:     services,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetVisitService returns the visit lifecycle service
func (c *Container) GetVisitService() service.VisitService {
	return c.Services.Visit
}

// GetVoucherService returns the voucher service
func (c *Container) GetVoucherService() service.VoucherService {
	return c.Services.Voucher
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetRepositories returns the repository aggregate
func (c *Container) GetRepositories() *repository.Repositories {
	return c.Repositories
}
