// soilctl drives the soil monitor service components directly against its
// database, without going through the HTTP or gRPC servers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"liyu1981.xyz/soil-monitor-service/pkg/app"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
)

type cli struct {
	configPath string
	open       func(ctx context.Context, cfg *config.Config) (*app.App, error)
	app        *app.App
}

func openApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	dbInstance, err := app.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, dbInstance)
}

// service lazily builds the App so --help never touches the database.
func (c *cli) service(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}

	var cfg *config.Config
	var err error
	if c.configPath != "" {
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, err
		}
		if err = cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
	} else if cfg, err = config.FromEnv(); err != nil {
		return nil, err
	}

	c.app, err = c.open(cmd.Context(), cfg)
	return c.app, err
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "soilctl",
		Short:         "Soil monitor CLI",
		Long:          "Command-line tool for sweeping node connectivity and managing the crop knowledge base.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file, defaults to IOT_CONFIG_PATH")

	rootCmd.AddCommand(newSweepCmd(c))
	rootCmd.AddCommand(newAlertsCmd(c))
	rootCmd.AddCommand(newAssignCmd(c))
	rootCmd.AddCommand(newUploadCmd(c))
	rootCmd.AddCommand(newDocumentsCmd(c))
	rootCmd.AddCommand(newSearchCmd(c))
	rootCmd.AddCommand(newCropsCmd(c))

	return rootCmd
}

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd(&cli{open: openApp})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
