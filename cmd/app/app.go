package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/squares-api/internal/api"
	"github.com/vietanh2810/squares-api/internal/config"
	"github.com/vietanh2810/squares-api/internal/db"
	"github.com/vietanh2810/squares-api/internal/logger"
	"github.com/vietanh2810/squares-api/internal/metrics"
	"github.com/vietanh2810/squares-api/internal/repository"
	"github.com/vietanh2810/squares-api/internal/repository/dao"
	"github.com/vietanh2810/squares-api/internal/repository/filestore"
	fsstore "github.com/vietanh2810/squares-api/internal/repository/firestore"
	"github.com/vietanh2810/squares-api/internal/service"
)

// backend is the opened board store plus whatever must be closed with it.
type backend struct {
	state   service.StateStore
	changes service.ChangeSource
	db      *gorm.DB
	close   func()
}

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := openBackend(ctx, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize store -> %w", err)
	}
	defer be.close()

	m := metrics.New(prometheus.NewRegistry()).WithRuntime()
	svcs, err := initServices(conf, be, m)
	if err != nil {
		return fmt.Errorf("failed to initialize services -> %w", err)
	}

	svcs.Board.Start(ctx)
	defer svcs.Board.Stop()

	s := api.NewServer(conf, svcs)
	go s.Stream.Run(ctx)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr),
		zap.String("store", conf.Store.Driver),
		zap.String("auth", conf.Auth.Mode),
	)
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

func initServices(conf *config.AppConfig, be backend, m *metrics.Metrics) (api.Services, error) {
	policy := service.NewPasscodePolicy()
	if conf.Auth.Mode == config.AuthModeAccounts {
		policy = service.NewAccountsPolicy(conf.Auth.Admins)
	}

	var opts []service.Option
	if be.changes != nil {
		opts = append(opts, service.WithChangeSource(be.changes))
	}
	board := service.NewFundraiserService(be.state, policy, m, opts...)

	svcs := api.Services{
		Board:   board,
		Metrics: m,
		Auth:    service.NewAuthService(nil, board, policy),
	}

	if conf.Auth.Mode == config.AuthModeAccounts {
		if be.db == nil {
			return api.Services{}, errors.New("accounts mode needs postgres")
		}

		users := repository.NewUserRepository(dao.NewUserDAO(be.db))
		svcs.Auth = service.NewAuthService(users, board, policy)
		svcs.Users = service.NewUserService(users)
	}

	return svcs, nil
}

func openBackend(ctx context.Context, conf *config.AppConfig) (backend, error) {
	be := backend{close: func() {}}

	// Accounts always live in Postgres, whatever holds the board.
	if conf.Store.Driver == config.StoreDriverPostgres || conf.Auth.Mode == config.AuthModeAccounts {
		postgresDB, err := openPostgres(conf.Postgres)
		if err != nil {
			return backend{}, fmt.Errorf("failed to initialize database -> %w", err)
		}
		be.db = postgresDB
	}

	switch conf.Store.Driver {
	case config.StoreDriverFile:
		store, err := filestore.New(conf.Store.File.Dir, conf.Store.File.Key)
		if err != nil {
			return backend{}, fmt.Errorf("filestore.New -> %w", err)
		}
		zap.L().Info("using file store", zap.String("path", store.Path()))
		be.state, be.changes = store, store

	case config.StoreDriverPostgres:
		repo := repository.NewFundraiserRepository(dao.NewFundraiserDAO(be.db), conf.Fundraiser.Name, conf.Postgres.NotifyChannel)
		be.state = repo
		be.changes = repository.NewListener(conf.Postgres.DSN(), conf.Postgres.NotifyChannel, repo)

	case config.StoreDriverFirestore:
		store, err := fsstore.New(ctx, conf.Store.Firestore.ProjectID, conf.Store.Firestore.Collection, conf.Fundraiser.Name)
		if err != nil {
			return backend{}, fmt.Errorf("firestore.New -> %w", err)
		}
		be.state, be.changes = store, store
		be.close = func() {
			if err := store.Close(); err != nil {
				zap.L().Warn("closing firestore failed", zap.Error(err))
			}
		}

	default:
		return backend{}, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}

	return be, nil
}

// openPostgres prefers DATABASE_URL, as set on Heroku.
func openPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	if conf.URL != "" {
		return db.OpenPostgresWithURL(conf.URL)
	}
	return db.OpenPostgres(conf)
}
