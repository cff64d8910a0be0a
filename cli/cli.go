// Package cli builds the resque command line: pushing jobs, following job
// status, inspecting queues and workers, and running workers.
//
// The stock binary in cmd/resque knows no job classes. Applications embed
// the commands with their own registry:
//
//	reg := job.NewRegistry()
//	reg.RegisterFunc("SendEmail", sendEmail)
//	os.Exit(cli.Execute(cli.WithRegistry(reg)))
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/resque"
	audithook "github.com/xraph/resque/audit_hook"
	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/middleware"
	"github.com/xraph/resque/observability"
	"github.com/xraph/resque/store"
)

// Option configures the command tree.
type Option func(*app)

// WithRegistry supplies the job classes workers can perform.
func WithRegistry(reg *job.Registry) Option {
	return func(a *app) { a.registry = reg }
}

// WithDialer replaces the Redis dialer.
func WithDialer(d store.Dialer) Option {
	return func(a *app) { a.dialer = d }
}

// WithExtension registers an extension on every instance the commands
// build.
func WithExtension(e ext.Extension) Option {
	return func(a *app) { a.extensions = append(a.extensions, e) }
}

// WithLogOutput redirects log output, stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(a *app) { a.logOut = w }
}

type app struct {
	registry   *job.Registry
	dialer     store.Dialer
	extensions []ext.Extension
	logOut     io.Writer

	configPath string
	namespace  string
	database   int
	logLevel   string
	logFormat  string
	audit      bool
}

// NewRootCommand returns the resque command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{logOut: os.Stderr}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = job.NewRegistry()
	}

	root := &cobra.Command{
		Use:           "resque",
		Short:         "Resque job queue CLI",
		Long:          "Push jobs, follow their status and run workers against a Redis backed Resque queue.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", os.Getenv("RESQUE_CONFIG"), "YAML config file")
	pf.StringVar(&a.namespace, "namespace", "", "Key prefix (default resque)")
	pf.IntVar(&a.database, "db", 0, "Logical database index")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text|json (default text)")
	pf.BoolVar(&a.audit, "audit", false, "Log an audit event for every job and worker lifecycle event")

	root.AddCommand(
		a.pushCommand(),
		a.statusCommand(),
		a.queuesCommand(),
		a.workersCommand(),
		a.statsCommand(),
		a.workCommand(),
	)
	return root
}

// Execute runs the command tree against os.Args and returns the process
// exit code.
func Execute(opts ...Option) int {
	root := NewRootCommand(opts...)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// config assembles defaults, the config file, RESQUE_* variables and
// explicitly set flags, in that order.
func (a *app) config(cmd *cobra.Command) (resque.Config, error) {
	cfg := resque.DefaultConfig()
	if a.configPath != "" {
		loaded, err := resque.LoadConfig(a.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	resque.FromEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("namespace") {
		cfg.Namespace = a.namespace
	}
	if flags.Changed("db") {
		cfg.Database = a.database
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	return cfg, cfg.Validate()
}

// open builds a Resque instance for server. An empty server keeps the
// configured one.
func (a *app) open(cmd *cobra.Command, server string) (*resque.Resque, resque.Config, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, cfg, err
	}
	if server != "" {
		cfg.Server = server
	}
	logger, err := newLogger(a.logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, cfg, err
	}

	opts := []resque.Option{
		resque.WithConfig(cfg),
		resque.WithLogger(logger),
		resque.WithRegistry(a.registry),
		resque.WithMiddleware(
			middleware.Tracing(),
			middleware.Metrics(),
			middleware.Recover(logger),
			middleware.Logging(logger),
		),
		resque.WithExtension(observability.NewMetricsExtension()),
	}
	if a.dialer != nil {
		opts = append(opts, resque.WithDialer(a.dialer))
	}
	if a.audit {
		opts = append(opts, resque.WithExtension(audithook.New(audithook.LogRecorder(logger), audithook.WithLogger(logger))))
	}
	for _, e := range a.extensions {
		opts = append(opts, resque.WithExtension(e))
	}
	rq, err := resque.New(opts...)
	return rq, cfg, err
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q; use text|json", format)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
