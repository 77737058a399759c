package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rgonek/blogpen/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	root := newRootCmd()
	root.Version = Version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		envFile  string
		logLevel string
	)

	root := &cobra.Command{
		Use:           "blogpen",
		Short:         "blogpen - rich content authoring and media pipeline for the blog API",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadFile(envFile); err != nil {
			return err
		}
		cfg := config.Load()
		if root.PersistentFlags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.log = log
		return nil
	}

	flags := root.PersistentFlags()
	flags.StringVar(&envFile, "env", ".env", "Path to environment file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: trace|debug|info|warn|error")
	flags.StringVar(&a.preset, "preset", presetBalanced, "Markup preset: balanced|strict|lossy")
	flags.BoolVar(&a.strict, "strict", false, "Fail on tags outside the document schema")

	root.AddCommand(
		newRenderCmd(a),
		newApplyCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newUploadCmd(a),
		newSaveCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newHealthCmd(a),
	)
	return root
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log, nil
}
