package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/cart"
	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/metrics"
	"github.com/vladislavdragonenkov/cafecart/internal/render"
	"github.com/vladislavdragonenkov/cafecart/internal/service/cartsync"
	"github.com/vladislavdragonenkov/cafecart/internal/storage/sqlite"
	"github.com/vladislavdragonenkov/cafecart/internal/version"
)

// runtime - собранный клиент корзины для одной команды.
type runtime struct {
	cfg      Config
	store    *cart.Store
	terminal *render.Terminal
	closeFn  func() error
}

func newRuntime(ctx context.Context, cfg Config, out io.Writer) (*runtime, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		defaultPath, err := sqlite.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve snapshot db path: %w", err)
		}
		dbPath = defaultPath
	}

	snapshots, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("component", "cartctl")

	slot := cfg.Slot
	if slot == "" {
		slot = domain.DefaultSnapshotSlot
	}
	jar, err := cartsync.NewSessionJar(ctx, snapshots, slot+cartsync.SessionSlotSuffix, cfg.Server,
		logger.WithField("layer", "session-jar"))
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}

	syncer := cartsync.NewHTTPSyncer(cfg.Server,
		cartsync.WithLogger(logger.WithField("layer", "http-syncer")),
		cartsync.WithHTTPClient(&http.Client{Jar: jar, Timeout: cfg.SyncTimeout}),
		cartsync.WithUserAgent(version.UserAgent("cartctl")),
	)
	breaker := cartsync.NewBreakerSyncer(syncer, cartsync.BreakerSettings{
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
		Logger:              logger.WithField("layer", "breaker"),
	})

	terminal := render.NewTerminal(out)
	store := cart.NewStore(snapshots, breaker,
		cart.WithLogger(logger.WithField("layer", "store")),
		cart.WithSlot(cfg.Slot),
		cart.WithRenderer(terminal),
		cart.WithNotifier(terminal),
		cart.WithMetrics(metrics.NewCartMetrics()),
		cart.WithSyncTimeout(cfg.SyncTimeout),
	)

	return &runtime{
		cfg:      cfg,
		store:    store,
		terminal: terminal,
		closeFn:  snapshots.Close,
	}, nil
}

func (r *runtime) Close() error {
	if r == nil || r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}
