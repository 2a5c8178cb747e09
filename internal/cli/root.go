// Package cli is the tripplanner command line. Every command resumes the
// cached session, runs one app workflow and prints the result; the shell
// command drives the screens interactively instead.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/app"
	"github.com/example/onlinetravel/internal/backend"
	"github.com/example/onlinetravel/internal/config"
	"github.com/example/onlinetravel/internal/platform"
)

const (
	OutputText = "text"
	OutputYAML = "yaml"

	// annotationScreens marks commands whose app renders screens to stdout.
	annotationScreens = "screens"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNotFound    = errors.New("not found")
)

// Options customize NewRootCommand. Zero values load the configuration from
// the environment and connect to the configured backend.
type Options struct {
	Config  *config.Config
	Backend *backend.Backend
	Logger  *zap.Logger
}

type runtime struct {
	opts Options

	output   string
	yes      bool
	verbose  bool
	active   bool
	password string
	mailTo   []string

	cfg     *config.Config
	logger  *zap.Logger
	backend *backend.Backend
	in      *bufio.Reader
	app     *app.App
}

// NewRootCommand builds the tripplanner command tree.
func NewRootCommand(opts Options) *cobra.Command {
	r := &runtime{opts: opts}
	root := &cobra.Command{
		Use:   "tripplanner",
		Short: "Plan trips, travel them and share them",
		Long: `tripplanner keeps your trips, their destinations, notes and expenses
in the online travel store.

Quick Start:
  tripplanner register ann@example.com
  tripplanner login ann@example.com
  tripplanner trips add Lisbon --days 3
  tripplanner dest add 1 --name Alfama --lat 38.71 --lng -9.13 --day 1
  tripplanner trip start 1
  tripplanner shell`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}
	root.PersistentFlags().StringVarP(&r.output, "output", "o", OutputText, "output format: text or yaml")
	root.PersistentFlags().BoolVarP(&r.yes, "yes", "y", false, "answer yes to every confirmation")
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		r.registerCmd(),
		r.loginCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.tripsCmd(),
		r.tripCmd(),
		r.destCmd(),
		r.noteCmd(),
		r.spentCmd(),
		r.shareCmd(),
		r.shellCmd(),
	)
	return root
}

func (r *runtime) setup(cmd *cobra.Command, _ []string) error {
	if r.output != OutputText && r.output != OutputYAML {
		return fmt.Errorf("unknown output format %q", r.output)
	}

	r.cfg = r.opts.Config
	if r.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		r.cfg = cfg
	}

	r.logger = r.opts.Logger
	if r.logger == nil {
		logger, err := newLogger(r.cfg, r.verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		r.logger = logger
	}

	r.backend = r.opts.Backend
	if r.backend == nil {
		b, err := backend.New(cmd.Context(), r.cfg, r.logger)
		if err != nil {
			return err
		}
		r.backend = b
	}

	cache, err := backend.OpenSessionCache(r.cfg)
	if err != nil {
		return err
	}

	r.in = bufio.NewReader(cmd.InOrStdin())
	var prompter app.Prompter = app.NewLinePrompter(r.in, cmd.OutOrStdout())
	if r.yes {
		prompter = app.AutoConfirm{}
	}
	screens := io.Discard
	if cmd.Annotations[annotationScreens] != "" {
		screens = cmd.OutOrStdout()
	}

	deps := app.Deps{
		Session:  r.backend.NewSession(r.cfg, cache, r.logger),
		Prompter: prompter,
		Maps:     printMaps{w: cmd.OutOrStdout()},
		Out:      screens,
		Logger:   r.logger,
	}
	if len(r.mailTo) > 0 {
		if !r.cfg.SMTPEnabled() {
			return errors.New("--mail-to needs SMTP_HOST and SMTP_FROM")
		}
		deps.Sharer = platform.NewMailSharer(r.cfg.SMTPHost, r.cfg.SMTPPort, r.cfg.SMTPUser, r.cfg.SMTPPass, r.cfg.SMTPFrom, r.mailTo...)
	}
	r.app = app.New(deps)
	return nil
}

// newLogger logs warnings to stderr only, unless verbose is set.
func newLogger(appConfig *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if appConfig.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	if !verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zc.Build()
}

// signIn resumes the cached session and loads the user's trips.
func (r *runtime) signIn(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := r.app.Session().AutoLogin(ctx); err != nil {
		return fmt.Errorf("%w, run 'tripplanner login' first: %w", ErrNotSignedIn, err)
	}
	return r.app.LoadUserData(ctx)
}

// printMaps writes map intents to the terminal instead of launching a map app.
type printMaps struct {
	w io.Writer
}

func (p printMaps) Open(uri string) error {
	_, err := fmt.Fprintln(p.w, uri)
	return err
}
