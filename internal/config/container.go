package config

import (
	"plan-banner-service/internal/domain"
	"plan-banner-service/internal/repository"
	"plan-banner-service/internal/service"
	"plan-banner-service/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	DismissalStore *repository.SQLiteDismissalStore

	AuthService       domain.AuthService
	PlanService       domain.PlanService
	UsageLimitService domain.UsageLimitService
	BannerService     domain.BannerService
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	// Initialize Supabase client
	supabaseClient := repository.NewSupabaseClient(config, appLogger)
	if err := supabaseClient.Initialize(); err != nil {
		return nil, err
	}

	// Local store for dismiss flags and plan snapshots
	dismissalStore, err := repository.NewSQLiteDismissalStore(config.GetDataDir(), appLogger)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	subscriptionSource := repository.NewFunctionSubscriptionSource(config, appLogger)
	subscriptionMirror := repository.NewSupabaseSubscriptionRepository(supabaseClient, appLogger)
	usageRepo := repository.NewSupabaseUsageRepository(supabaseClient, appLogger)

	// Initialize services
	authService := service.NewAuthService(supabaseClient, appLogger)
	planService := service.NewPlanService(subscriptionSource, subscriptionMirror, dismissalStore, config, appLogger)
	usageLimitService := service.NewUsageLimitService(usageRepo, dismissalStore, config, appLogger)
	bannerService := service.NewBannerService(dismissalStore, appLogger)

	return &Container{
		Config:            config,
		Logger:            appLogger,
		SupabaseClient:    supabaseClient,
		DismissalStore:    dismissalStore,
		AuthService:       authService,
		PlanService:       planService,
		UsageLimitService: usageLimitService,
		BannerService:     bannerService,
	}, nil
}

// Close releases the container's local resources.
func (c *Container) Close() error {
	return c.DismissalStore.Close()
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
