package main

import (
	"fmt"
	"io"

	"github.com/nikolayk812/cartsession/internal/config"
	"github.com/nikolayk812/cartsession/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	out io.Writer

	// flags
	configPath string
	token      string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Shopping cart session for the storefront backend",
		Long: `cartctl keeps a shopping cart for one storefront session.

Every command hydrates the cart from the backend when a session token is
configured, applies one change, mirrors it to the backend cart and prints
the resulting cart.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "cartctl.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.token, "token", "", "session bearer token (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		a.showCmd(),
		a.addCmd(),
		a.removeCmd(),
		a.setCmd(),
		a.clearCmd(),
		a.checkoutCmd(),
		a.invoicesCmd(),
		a.logoutCmd(),
		a.configCmd(),
	)

	return rootCmd
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	if a.token != "" {
		cfg.Session.Token = a.token
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
		Verbose:  a.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}
