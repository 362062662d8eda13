package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	uidomain "github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	platformobservability "github.com/Apurer/admin-dashboard/internal/platform/observability"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// ServiceName identifies the CLI in logs and traces.
const ServiceName = "admin-dashboard"

// Factory builds the App for a loaded config. The returned cleanup runs after
// the command finishes.
type Factory func(ctx context.Context, cfg Config, logOutput io.Writer) (*App, func(context.Context) error, error)

// CLI holds what every command shares.
type CLI struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	factory Factory

	configPath string
	apiURL     string
	assumeYes  bool

	interactive func() bool

	app     *App
	cleanup func(context.Context) error
	render  *Renderer
	stop    func()
	prompt  *bufio.Reader
}

// CLIOption customizes NewRootCommand.
type CLIOption func(*CLI)

// WithIO replaces stdin, stdout, and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) CLIOption {
	return func(c *CLI) { c.in, c.out, c.errOut = in, out, errOut }
}

// WithFactory replaces how the App is built.
func WithFactory(factory Factory) CLIOption {
	return func(c *CLI) { c.factory = factory }
}

// WithInteractive overrides terminal detection for confirmation prompts.
func WithInteractive(enabled bool) CLIOption {
	return func(c *CLI) { c.interactive = func() bool { return enabled } }
}

// DefaultFactory initializes observability on logOutput and wires the App
// with the configured token store.
func DefaultFactory(ctx context.Context, cfg Config, logOutput io.Writer) (*App, func(context.Context) error, error) {
	instruments, shutdown, err := platformobservability.Init(ctx, ServiceName,
		platformobservability.WithLogOutput(logOutput),
		platformobservability.WithLogLevel(platformobservability.ParseLevel(cfg.LogLevel)),
		platformobservability.WithLogFormat(cfg.LogFormat),
		platformobservability.WithTracing(cfg.Tracing),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	app, err := New(cfg, WithInstruments(instruments))
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}
	return app, shutdown, nil
}

// NewRootCommand builds the dashboard command tree.
func NewRootCommand(opts ...CLIOption) *cobra.Command {
	c := &CLI{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, factory: DefaultFactory}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.interactive == nil {
		c.interactive = func() bool { return isInteractive(c.in) }
	}

	root := &cobra.Command{
		Use:               "dashboard",
		Short:             "Manage dashboard users and sessions from the terminal",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown(cmd.Context())
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (default $DASHBOARD_CONFIG)")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "backend base URL (default $DASHBOARD_API_URL)")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.registerCommand(),
		c.passwordCommand(),
		c.verifyEmailCommand(),
		c.usersCommand(),
	)
	return root
}

// Execute runs the command tree and reports a failure on stderr.
func Execute(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(c.configPath, func(cfg *Config) {
		if c.apiURL != "" {
			cfg.APIBaseURL = c.apiURL
		}
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, cleanup, err := c.factory(ctx, cfg, c.errOut)
	if err != nil {
		return err
	}
	c.app, c.cleanup = app, cleanup
	c.render = NewRenderer(c.out)
	c.stop = state.Watch(app.Store, func(s State) uidomain.Snackbar { return s.UI.Snackbar }, state.Equal[uidomain.Snackbar], c.render.Snackbar)
	return nil
}

func (c *CLI) teardown(ctx context.Context) error {
	if c.stop != nil {
		c.stop()
	}
	if c.cleanup == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.cleanup(shutdownCtx); err != nil {
		c.app.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
	}
	return nil
}

// run reports a failure through the snackbar before returning it.
func (c *CLI) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		c.app.Feedback.Fail(err)
		if fields := apperrors.ValidationFields(err); len(fields) > 0 {
			c.render.FieldErrors(fields)
		}
		if c.stop != nil {
			c.stop()
			c.stop = nil
		}
		// cobra skips post-run hooks when RunE fails.
		_ = c.teardown(cmd.Context())
		c.cleanup = nil
		return err
	}
}

func (c *CLI) reader() *bufio.Reader {
	if c.prompt == nil {
		c.prompt = bufio.NewReader(c.in)
	}
	return c.prompt
}

// ask prints question and reads one trimmed line.
func (c *CLI) ask(question string) (string, error) {
	fmt.Fprint(c.out, question)
	line, err := c.reader().ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askSecret is ask without echo when in is a terminal. Piped input is read
// like any other answer.
func (c *CLI) askSecret(question string) (string, error) {
	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return c.ask(question)
	}
	fmt.Fprint(c.out, question)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// confirm opens the confirm dialog for action and resolves it from --yes or
// an interactive answer. Without either the dialog is cancelled.
func (c *CLI) confirm(ctx context.Context, opts uidomain.ConfirmOptions, action func(context.Context) error) error {
	c.app.Confirmer.Request(opts, action)
	c.render.ConfirmDialog(c.app.Store.State().UI.ConfirmDialog)
	if c.assumeYes {
		return c.app.Confirmer.Confirm(ctx)
	}
	if !c.interactive() {
		c.app.Confirmer.Cancel()
		return errors.New("confirmation required: rerun with --yes")
	}
	answer, err := c.ask("> ")
	if err != nil {
		c.app.Confirmer.Cancel()
		return err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return c.app.Confirmer.Confirm(ctx)
	default:
		c.app.Confirmer.Cancel()
		c.app.Feedback.Info("Cancelled")
		return nil
	}
}

// requireSession resolves the stored token and fails when nobody is signed in.
func (c *CLI) requireSession(ctx context.Context) error {
	if c.app.Auth.CheckSession(ctx) == nil {
		return ErrNotSignedIn
	}
	return nil
}
