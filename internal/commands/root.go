package commands

import (
	"context"
	"fmt"
	"time"
	"timetable/internal/app"
	"timetable/internal/config"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion задаётся из ldflags при сборке
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd собирает дерево команд; каждое выполнение получает свежие флаги
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "timetable",
		Short: "Weekly routine timetable with task carry-forward",
		Long: `timetable keeps a recurring weekly schedule of activities, tells which one is current,
tracks ad-hoc sessions and carries unfinished tasks to the next occurrence of the same activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for CLI commands")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCurrentCmd(opts),
		newWeekCmd(opts),
		newImportCmd(opts),
		newActivityCmd(opts),
		newTaskCmd(opts),
		newCarryCmd(opts),
		newSessionCmd(opts),
		newVersionCmd(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

type serviceFunc func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error

// withService: CLI работает с персистентным хранилищем, поэтому inmemory заменяется на sqlite
func (o *rootOptions) withService(fn serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := o.load()
		if err != nil {
			return err
		}
		if cfg.Repository.Type == config.RepositoryInMemory {
			cfg.Repository.Type = config.RepositorySQLite
		}
		cfg.Logging.Development = false
		cfg.Logging.Level = o.logLevel

		a, err := app.New(cfg).Init(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(cmd.Context(), cmd, a.Service(), args)
	}
}

func parseUUIDArg(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("неверный %s %q: %w", name, value, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s не может быть пустым", name)
	}
	return id, nil
}

// parseAt: пустая строка - текущий момент
func parseAt(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("неверный --at %q, ожидается RFC3339: %w", value, err)
	}
	return at, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "timetable %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
