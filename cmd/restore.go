package cmd

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Copy the backup bundle back over the target",
	Long: `Copy the bundle saved by the last patch back over the target.

Spotify is not stopped; close it first if it is running.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	p, err := newPatcher(cmd)
	if err != nil {
		return err
	}

	paths := p.Config().Paths
	pterm.Info.Printf("Restoring %s from %s\n", paths.Target, paths.Backup)
	if !p.Restore() {
		pterm.Error.Println("Restore failed. Run with --debug for details.")
		return errors.New("restore failed")
	}
	pterm.Success.Println("Backup restored.")
	return nil
}
