package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"hazard-report/internal/adapters/ledger"
	"hazard-report/internal/adapters/mail"
	"hazard-report/internal/adapters/policy"
	"hazard-report/internal/adapters/store/sqlite"
	"hazard-report/internal/app"
	"hazard-report/internal/platform/logging"
	"hazard-report/internal/services/attachment"
	"hazard-report/internal/services/lifecycle"
	"hazard-report/internal/services/notify"
	"hazard-report/internal/services/validator"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOptions 是全局参数；显式传入的 flag 覆盖环境变量与 .env。
type rootOptions struct {
	envFile    string
	dbPath     string
	ledgerPath string
	logLevel   string
	logFormat  string

	cfg app.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hazard-cli",
		Short:         "Hazard report intake and lifecycle",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(opts.envFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = opts.dbPath
			}
			if flags.Changed("ledger") {
				cfg.LedgerPath = opts.ledgerPath
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if opts.logFormat != "json" && opts.logFormat != "text" {
				return fmt.Errorf("invalid log format %q: must be json or text", opts.logFormat)
			}
			opts.cfg = cfg
			return nil
		},
	}

	defaults := app.DefaultConfig()
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional .env file")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", defaults.DBPath, "sqlite database path")
	cmd.PersistentFlags().StringVar(&opts.ledgerPath, "ledger", defaults.LedgerPath, "ledger csv path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	return cmd
}

// runtime 汇总一次命令执行所需的全部组件。
type runtime struct {
	cfg         app.Config
	log         *logrus.Logger
	db          *sql.DB
	store       *sqlite.Store
	ledger      *ledger.Writer
	attachments *attachment.Service
	notifier    *notify.Notifier
	ctrl        *lifecycle.Controller
}

// openRuntime 打开数据库与台账并组装生命周期控制器。
// stdout 为 true 时日志同时输出到标准输出（serve 使用）；其余命令只写日志文件，保持 stdout 干净。
func openRuntime(ctx context.Context, opts *rootOptions, stdout bool) (*runtime, error) {
	cfg := opts.cfg
	log, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Format: opts.logFormat, Stdout: stdout})
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	uploadPolicy, err := policy.Load(ctx, cfg.UploadPolicy)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	lw, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	var sender mail.Sender
	if cfg.SMTP.Enabled() {
		sender = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		log.Info("smtp not configured; notifications disabled")
	}
	n := notify.New(sender, notify.Options{
		From:      cfg.SMTP.From,
		Recipient: cfg.SMTP.Recipient,
		Timeout:   cfg.SMTP.Timeout,
	}, log)

	store := sqlite.NewStore(db)
	atts := attachment.New(uploadPolicy, store)
	ctrl := lifecycle.New(lifecycle.Deps{
		Validator:   validator.New(loc),
		Attachments: atts,
		Ledger:      lw,
		Store:       store,
		Notifier:    n,
		Logger:      log,
	})

	return &runtime{
		cfg:         cfg,
		log:         log,
		db:          db,
		store:       store,
		ledger:      lw,
		attachments: atts,
		notifier:    n,
		ctrl:        ctrl,
	}, nil
}

// Close 等待进行中的通知，随后关闭台账与数据库。
func (rt *runtime) Close() {
	rt.notifier.Wait()
	if err := rt.ledger.Close(); err != nil {
		rt.log.WithError(err).Warn("close ledger")
	}
	if err := rt.db.Close(); err != nil {
		rt.log.WithError(err).Warn("close database")
	}
}

// output 返回命令输出目标；path 为空或 "-" 时写到 stdout。
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
