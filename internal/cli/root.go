package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/cafecart/internal/cart"
	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/service/cartsync"
	"github.com/vladislavdragonenkov/cafecart/internal/version"
)

type globalFlags struct {
	configPath   string
	server       string
	dbPath       string
	slot         string
	logLevel     string
	syncInterval time.Duration
}

// NewRootCommand собирает дерево команд cartctl.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}
	var cfg Config

	root := &cobra.Command{
		Use:     "cartctl",
		Short:   "Cafe cart client",
		Long:    "cartctl keeps the cafe cart locally and mirrors it to cart-server.",
		Version: version.GetVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			cfg = loaded
			setupLogger(cfg.LogLevel, errOut)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file path (default ~/.config/cartctl/config.yaml)")
	pf.StringVarP(&flags.server, "server", "s", "", "cart-server base URL")
	pf.StringVar(&flags.dbPath, "db", "", "snapshot database path (default ~/.local/share/cartctl/cart.db)")
	pf.StringVar(&flags.slot, "slot", "", "snapshot slot name")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	withRuntime := func(fn func(ctx context.Context, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer rt.Close()
			return fn(cmd.Context(), rt, args)
		}
	}

	root.AddCommand(
		positionalOnly(&cobra.Command{
			Use:   "add ID NAME PRICE",
			Short: "Add one unit of a menu item",
			Args:  cobra.ExactArgs(3),
			RunE: withRuntime(func(ctx context.Context, rt *runtime, args []string) error {
				price, err := strconv.ParseFloat(args[2], 64)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", args[2], err)
				}
				task, err := rt.store.AddItem(ctx, args[0], args[1], price)
				if err != nil {
					return err
				}
				return rt.awaitSync(ctx, task)
			}),
		}),
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove an item from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: withRuntime(func(ctx context.Context, rt *runtime, args []string) error {
				task, err := rt.store.RemoveItem(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.awaitSync(ctx, task)
			}),
		},
		positionalOnly(&cobra.Command{
			Use:     "update ID DELTA",
			Short:   "Change the quantity of an item by DELTA",
			Example: "  cartctl update tea -1\n  cartctl update tea 2",
			Args:    cobra.ExactArgs(2),
			RunE: withRuntime(func(ctx context.Context, rt *runtime, args []string) error {
				delta, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid delta %q: %w", args[1], err)
				}
				task, err := rt.store.UpdateQuantity(ctx, args[0], delta)
				if err != nil {
					return err
				}
				return rt.awaitSync(ctx, task)
			}),
		}),
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: withRuntime(func(ctx context.Context, rt *runtime, _ []string) error {
				task, err := rt.store.Clear(ctx)
				if err != nil {
					return err
				}
				return rt.awaitSync(ctx, task)
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the cart and the badge",
			Args:  cobra.NoArgs,
			RunE: withRuntime(func(ctx context.Context, rt *runtime, _ []string) error {
				rt.store.Refresh(ctx)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Push the cart to the server now",
			Args:  cobra.NoArgs,
			RunE: withRuntime(func(ctx context.Context, rt *runtime, _ []string) error {
				result, err := rt.store.SyncNow(ctx)
				if err != nil {
					rt.terminal.Notify(domain.NotificationDanger, "Sync failed: "+err.Error())
					return err
				}
				rt.terminal.Notify(domain.NotificationSuccess, syncMessage(result))
				return nil
			}),
		},
		newWatchCommand(flags, &cfg, withRuntime),
	)

	return root
}

// positionalOnly перестаёт разбирать флаги после первого позиционного аргумента,
// иначе отрицательные числа вроде -1 читаются как флаги.
func positionalOnly(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newWatchCommand(
	flags *globalFlags,
	cfg *Config,
	withRuntime func(func(context.Context, *runtime, []string) error) func(*cobra.Command, []string) error,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Push the cart periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(ctx context.Context, rt *runtime, _ []string) error {
			interval := cfg.SyncInterval
			if flags.syncInterval > 0 {
				interval = flags.syncInterval
			}
			scheduler := cartsync.NewScheduler(rt.store,
				cartsync.WithSchedulerLogger(log.WithField("component", "cartctl").WithField("layer", "scheduler")),
				cartsync.WithInterval(interval),
			)

			rt.terminal.Notify(domain.NotificationInfo, fmt.Sprintf("Syncing cart every %s, press Ctrl+C to stop", scheduler.Interval()))
			scheduler.Start(ctx)
			<-ctx.Done()
			scheduler.Stop()

			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.cfg.SyncTimeout)
			defer cancel()
			return rt.store.Flush(flushCtx)
		}),
	}
	cmd.Flags().DurationVar(&flags.syncInterval, "interval", 0, "sync interval (default from config, 30s)")
	return cmd
}

// awaitSync дожидается синхронизации мутации. Ошибка синхронизации не ошибка команды:
// локальная корзина уже сохранена, пользователь видит предупреждение.
func (r *runtime) awaitSync(ctx context.Context, task *cart.SyncTask) error {
	if task == nil {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.SyncTimeout)
	defer cancel()

	result, err := task.Wait(waitCtx)
	switch {
	case err == nil:
		log.WithField("request_id", result.RequestID).Debug("cart synced")
	case errors.Is(err, domain.ErrSyncCircuitOpen):
		r.terminal.Notify(domain.NotificationDanger, "Server unavailable, cart saved locally")
	default:
		r.terminal.Notify(domain.NotificationDanger, "Failed to sync cart with server: "+err.Error())
	}
	return nil
}

func syncMessage(result domain.SyncResult) string {
	if result.Message != "" {
		return result.Message
	}
	return "Cart synced"
}

// resolveConfig накладывает явно заданные флаги на YAML-конфиг.
func resolveConfig(cmd *cobra.Command, flags *globalFlags) (Config, error) {
	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		return Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Server = flags.server
	}
	if changed("db") {
		cfg.DBPath = flags.dbPath
	}
	if changed("slot") {
		cfg.Slot = flags.slot
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	defaults := DefaultConfig()
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = defaults.SyncTimeout
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaults.SyncInterval
	}
	return cfg, nil
}

func setupLogger(level string, out io.Writer) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(out)
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.WarnLevel
	}
	log.SetLevel(parsed)
}
