package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumenhq/adminapi/internal/adminops"
	"github.com/lumenhq/adminapi/internal/config"
	"github.com/lumenhq/adminapi/internal/db"
	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/export"
	"github.com/lumenhq/adminapi/internal/httpapi"
	"github.com/lumenhq/adminapi/internal/listquery"
	"github.com/lumenhq/adminapi/internal/repository"
	"github.com/lumenhq/adminapi/internal/sessioncache"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := repository.NewUserRepository(conn)
	auditRepo := repository.NewAuditRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)
	orgRepo := repository.NewOrganizationRepository(conn)

	var cache sessioncache.Cache
	serviceOpts := []adminops.Option{adminops.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		defer client.Close()
		cache = sessioncache.NewRedisCache(client)
		logger.Info("session cache backed by redis", "addr", cfg.Redis.Addr)
	} else {
		cache = sessioncache.NewMemoryCache()
		logger.Info("session cache running in-process")
	}
	serviceOpts = append(serviceOpts, adminops.WithSessionInvalidator(cache))

	adminSvc := adminops.NewService(repository.NewAdminStore(conn), serviceOpts...)

	if err := bootstrapAdmin(ctx, cfg.Bootstrap, orgRepo, userRepo, logger); err != nil {
		return err
	}

	userBuilder, err := listquery.NewBuilder(httpapi.UserListOptions())
	if err != nil {
		return fmt.Errorf("invalid users list config: %w", err)
	}
	auditBuilder, err := listquery.NewBuilder(httpapi.AuditListOptions())
	if err != nil {
		return fmt.Errorf("invalid audit list config: %w", err)
	}
	exporter := export.NewService(auditRepo, auditBuilder)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Authenticator:  httpapi.NewAuthenticator(cache, sessionRepo, userRepo, cfg.Redis.SessionTTL, logger),
		Users:          httpapi.NewUserHandler(userRepo, adminSvc, userBuilder, logger),
		Audit:          httpapi.NewAuditHandler(auditRepo, exporter, auditBuilder, logger),
		Organizations:  httpapi.NewOrganizationHandler(orgRepo, logger),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// bootstrapAdmin seeds the first administrator so the invariant has a base
// case. It is a no-op when any active admin already exists.
func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, orgs repository.OrganizationRepository, users repository.UserRepository, logger *slog.Logger) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil
	}
	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	existing, err := orgs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}
	var org domain.Organization
	if len(existing) > 0 {
		org = existing[0]
	} else {
		org, err = orgs.Create(ctx, domain.NewOrganization("Default"))
		if err != nil {
			return fmt.Errorf("failed to create default organization: %w", err)
		}
	}

	admin := domain.NewUser(org.ID, email, name)
	created, err := users.CreateInitialAdminIfNone(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		logger.Info("created initial admin", "email", email, "user_id", admin.ID)
	}
	return nil
}
