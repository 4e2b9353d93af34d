// Package cli implements the akademikctl maintenance commands.
package cli

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/config"
	"github.com/noah-isme/akademik-api/internal/database"
)

// DBOpener returns a connected database handle for commands that need one.
type DBOpener func() (*gorm.DB, error)

// OpenFromConfig loads the service configuration and connects to its database.
func OpenFromConfig() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
}

// NewRootCmd builds the akademikctl command tree.
func NewRootCmd(open DBOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "akademikctl",
		Short:         "Maintenance tool for the Akademik API",
		Long:          "akademikctl migrates the database and inspects student identifiers (NIM).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(MigrateCmd(open))
	root.AddCommand(ProgramsCmd())
	root.AddCommand(NIMCmd(open))

	return root
}
