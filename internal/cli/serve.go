// serve.go implements the "resume-ssh serve" command that runs the server
// until SIGINT or SIGTERM.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/config"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/identity"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/server"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/shell"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SSH résumé server",
	Long: `Start the SSH server and serve the résumé to every client until
interrupted. Flags override the config file and RESUME_SSH_* variables.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	hostFlag       string
	portFlag       int
	hostKeyFlag    string
	resumeFlag     string
	logLevelFlag   string
	logFileFlag    string
	idleFlag       string
	maxSessionFlag string
)

func init() {
	serveCmd.Flags().StringVar(&hostFlag, "host", "", "Interface to listen on (default 0.0.0.0)")
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Port to listen on (default 2222)")
	serveCmd.Flags().StringVar(&hostKeyFlag, "host-key", "", "Path to a persistent host key (see 'resume-ssh keygen')")
	serveCmd.Flags().StringVar(&resumeFlag, "resume", "", "Path to a résumé YAML file (default: built-in)")
	serveCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	serveCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Append JSON log lines to this file instead of stderr")
	serveCmd.Flags().StringVar(&idleFlag, "idle-timeout", "", "Close sessions idle for this long, e.g. 10m (0 disables)")
	serveCmd.Flags().StringVar(&maxSessionFlag, "max-session", "", "Close sessions older than this, e.g. 1h (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	logger, closer, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logger.Sync()

	id, err := identity.LoadOrCreate(cfg.Identity.KeyPath, logger)
	if err != nil {
		return err
	}
	res, err := resume.Load(cfg.Resume.Path)
	if err != nil {
		return &config.ConfigurationError{Key: config.EnvResumePath, Err: err}
	}

	srv, err := server.New(server.Options{
		Addr:             cfg.Addr(),
		Identity:         id,
		Resume:           res,
		Registry:         shell.DefaultRegistry(),
		Logger:           logger,
		IdleTimeout:      cfg.Server.IdleTimeout,
		MaxSession:       cfg.Server.MaxSession,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

// applyServeFlags copies explicitly set flags over cfg and revalidates it.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = hostFlag
	}
	if flags.Changed("port") {
		cfg.Server.Port = portFlag
	}
	if flags.Changed("host-key") {
		cfg.Identity.KeyPath = hostKeyFlag
	}
	if flags.Changed("resume") {
		cfg.Resume.Path = resumeFlag
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("log-file") {
		cfg.Log.Path = logFileFlag
	}

	overrides := map[string]string{}
	if flags.Changed("idle-timeout") {
		overrides[config.EnvIdleTimeout] = idleFlag
	}
	if flags.Changed("max-session") {
		overrides[config.EnvMaxSession] = maxSessionFlag
	}
	if len(overrides) > 0 {
		lookup := func(key string) (string, bool) {
			v, ok := overrides[key]
			return v, ok
		}
		if err := cfg.ApplyEnv(lookup); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openLogger(cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	if cfg.Path == "" {
		return log.NewStderr(cfg.Level), nopCloser{}, nil
	}
	logger, closer, err := log.OpenFile(cfg.Path, cfg.Level)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Key: config.EnvLogPath, Err: fmt.Errorf("opening %s: %w", cfg.Path, err)}
	}
	return logger, closer, nil
}
