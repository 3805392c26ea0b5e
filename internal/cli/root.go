package cli

import (
	"fmt"
	"io"

	"github.com/phambaophuc/image-alt/internal/bootstrap"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type GlobalOptions struct {
	JSON    bool
	Verbose bool
}

// AppContext is shared by every command. NewApp is replaced in tests.
type AppContext struct {
	Build  BuildInfo
	IO     IOStreams
	Opts   GlobalOptions
	NewApp func(cfg *config.Config, logger *zap.Logger) (*bootstrap.App, error)
}

func Execute(build BuildInfo, streams IOStreams) int {
	app := &AppContext{Build: build, IO: streams, NewApp: localApp}
	root := newRootCommand(app)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return 1
	}
	return 0
}

func newRootCommand(app *AppContext) *cobra.Command {
	root := &cobra.Command{
		Use:               "altgen",
		Short:             "Upload images and generate alt text",
		Long:              "altgen uploads a batch of images to object storage and captions each one, showing per-file progress.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.SetOut(app.IO.Out)
	root.SetErr(app.IO.ErrOut)

	root.PersistentFlags().BoolVar(&app.Opts.JSON, "json", false, "Print the final batch as JSON")
	root.PersistentFlags().BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "Log service activity to stderr")

	root.AddCommand(newCaptionCommand(app))
	root.AddCommand(newPresignCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}

// localApp wires the services for a single local run. Notifications are
// printed by the command, not published.
func localApp(cfg *config.Config, logger *zap.Logger) (*bootstrap.App, error) {
	cfg.RabbitMQ.URL = ""
	return bootstrap.NewApp(cfg, logger)
}

func (a *AppContext) logger() *zap.Logger {
	if !a.Opts.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (a *AppContext) load() (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return a.NewApp(cfg, a.logger())
}
