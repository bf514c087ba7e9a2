package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"medledger/cmd/bootstrap"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "portal",
		Short:         "MedLedger patient portal and wallet ledger API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backupCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the job scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New(cmd.Context())
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the portal and ledger database schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Migrate(cmd.Context())
		},
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Dump both databases and send the archive to Telegram",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := bootstrap.Backup(ctx)
			if err != nil {
				return err
			}
			logrus.Infof("Backup %s sent (%d bytes, %d tables)", result.Filename, result.SizeBytes, len(result.Tables))
			return nil
		},
	}
}
