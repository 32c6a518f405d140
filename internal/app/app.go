// Package app wires configuration, storage and the HTTP surface into a running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	"github.com/iamfafakkk/minimalFreeRadius/internal/db"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api"
	"github.com/iamfafakkk/minimalFreeRadius/internal/metrics"
	"github.com/iamfafakkk/minimalFreeRadius/internal/ratelimit"
	"github.com/iamfafakkk/minimalFreeRadius/internal/security"
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Options tweak startup behaviour.
type Options struct {
	// CreateSchema creates the nas, radcheck and radreply tables when missing.
	CreateSchema bool
}

// CreateSchema opens the database and creates the FreeRADIUS tables that are absent.
func CreateSchema(cfg *config.AppConfig) error {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := db.Close(conn); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}()
	return db.EnsureSchema(conn)
}

// BuildRouter assembles every collaborator the routes need on top of an open connection.
func BuildRouter(cfg *config.AppConfig, conn *gorm.DB) (*gin.Engine, *ratelimit.Manager, error) {
	issuer, err := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return nil, nil, err
	}
	admin, err := security.NewAdminCredentials(cfg.Admin)
	if err != nil {
		return nil, nil, err
	}
	registry := metrics.NewRegistry()
	limiter := ratelimit.NewManager(cfg.RateLimit, nil, nil)

	engine, err := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Nas:      store.NewGormNasStore(conn),
		Users:    store.NewGormUserStore(conn),
		Issuer:   issuer,
		Admin:    admin,
		APIKeys:  security.NewAPIKeys(cfg.APIKeys),
		Limiter:  limiter,
		Metrics:  metrics.New(registry),
		Gatherer: registry,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, conn)
		},
	})
	if err != nil {
		_ = limiter.Close()
		return nil, nil, err
	}
	return engine, limiter, nil
}

// RunServer serves the API until ctx is cancelled, then drains in-flight requests.
func RunServer(ctx context.Context, cfg *config.AppConfig, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("app: nil config")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := db.Close(conn); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}()
	if errPing := db.Ping(ctx, conn); errPing != nil {
		return fmt.Errorf("database unreachable: %w", errPing)
	}
	log.Infof("connected to %s database", db.DialectName(conn))

	if opts.CreateSchema {
		if errSchema := db.EnsureSchema(conn); errSchema != nil {
			return errSchema
		}
		log.Info("schema ensured")
	}

	engine, limiter, err := BuildRouter(cfg, conn)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := limiter.Close(); errClose != nil {
			log.WithError(errClose).Warn("close rate limiter")
		}
	}()

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Server.HTTPSEnabled {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPSPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		srv := srv
		tls := i > 0
		group.Go(func() error {
			var errListen error
			if tls {
				log.Infof("HTTPS server listening on %s", srv.Addr)
				errListen = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
			} else {
				log.Infof("HTTP server listening on %s (environment=%s)", srv.Addr, cfg.Server.Environment)
				errListen = srv.ListenAndServe()
			}
			if errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, errListen)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, errShutdown))
			}
		}
		return errors.Join(errs...)
	})
	return group.Wait()
}
