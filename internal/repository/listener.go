package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const listenerRetryDelay = 2 * time.Second

type DocumentLoader interface {
	Load(ctx context.Context) ([]byte, error)
	Name() string
}

// Listener turns Postgres NOTIFY messages into fresh document snapshots.
// Any instance saving the board notifies every other instance.
type Listener struct {
	dsn     string
	channel string
	loader  DocumentLoader
}

func NewListener(dsn, channel string, loader DocumentLoader) *Listener {
	return &Listener{
		dsn:     dsn,
		channel: channel,
		loader:  loader,
	}
}

// Subscribe connects, issues LISTEN and calls onChange with the reloaded
// document after every notification for this board. The connection is
// re-established on failure until unsubscribe is called.
func (l *Listener) Subscribe(ctx context.Context, onChange func([]byte)) (func(), error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.run(ctx, conn, onChange)
	}()

	return func() {
		cancel()
		wg.Wait()
	}, nil
}

func (l *Listener) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("pgx.Connect -> %w", err)
	}

	if _, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("conn.Exec LISTEN -> %w", err)
	}

	return conn, nil
}

func (l *Listener) run(ctx context.Context, conn *pgx.Conn, onChange func([]byte)) {
	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(listenerRetryDelay):
			}

			var err error
			if conn, err = l.connect(ctx); err != nil {
				zap.L().Warn("fundraiser listener reconnect failed", zap.Error(err))
				conn = nil
				continue
			}
		}

		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			zap.L().Warn("fundraiser listener lost connection", zap.Error(err))
			_ = conn.Close(context.Background())
			conn = nil
			continue
		}

		if n.Payload != l.loader.Name() {
			continue
		}

		doc, err := l.loader.Load(ctx)
		if err != nil {
			zap.L().Error("fundraiser listener reload failed", zap.Error(err))
			continue
		}
		if doc != nil {
			onChange(doc)
		}
	}
}
