// Package stratacmder
package stratacmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/threadworksco/strata/cmd/strata/config"
	initcmder "github.com/threadworksco/strata/cmd/strata/initialize"
	processcmder "github.com/threadworksco/strata/cmd/strata/process"
	versioncmder "github.com/threadworksco/strata/cmd/version"
)

const strataLongDesc string = `Strata excavates conversation history into layered memory.

Point it at exported conversation logs and it scores each message for
confidence, detects drift against the surrounding context, and routes
every message into tiered memory partitions with a full audit trail.

Common invocations:
  strata process export.json        Process an export into the partitions
  strata process --mode dry_run     Preview routing without committing
  strata config list                Show the active configuration`

const strataShortDesc string = "Strata - Conversation Archaeology"

func NewStrataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strata",
		Short: strataShortDesc,
		Long:  strataLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .strata/ directory")

	// Add subcommands
	cmd.AddCommand(processcmder.NewProcessCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
