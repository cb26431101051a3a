package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ezblocker/spapatch/internal/patcher"
	"github.com/ezblocker/spapatch/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the bundle and its backup are patched",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringP("output", "o", "", "Output format (json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	p, err := newPatcher(cmd)
	if err != nil {
		return err
	}
	status, err := p.Inspect()
	if err != nil {
		return fmt.Errorf("failed to inspect bundle: %w", err)
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	printStatus(status)
	return nil
}

var (
	patchedColor   = pterm.NewRGB(31, 163, 130)
	unpatchedColor = pterm.NewRGB(245, 158, 11)
	missingColor   = pterm.NewRGB(128, 128, 128)
	brokenColor    = pterm.NewRGB(239, 68, 68)
)

func archiveLabel(st patcher.ArchiveStatus) (string, pterm.RGB) {
	switch {
	case !st.Exists:
		return "Missing", missingColor
	case st.Error != "":
		return "Unreadable", brokenColor
	case st.Patched:
		return "Patched", patchedColor
	default:
		return "Not patched", unpatchedColor
	}
}

func printStatus(status *patcher.Status) {
	tableData := pterm.TableData{{"Archive", "State", "Entries", "Size", "Modified", "Path"}}
	for _, row := range []struct {
		name string
		st   patcher.ArchiveStatus
	}{
		{"Target", status.Target},
		{"Backup", status.Backup},
	} {
		label, rgb := archiveLabel(row.st)
		var entries, size, modified string
		if row.st.Exists {
			entries = strconv.Itoa(row.st.Entries)
			size = util.FormatBytes(row.st.Size)
		}
		if row.st.ModTime != nil {
			modified = row.st.ModTime.Format(time.DateTime)
		}
		tableData = append(tableData, []string{
			row.name,
			rgb.Sprint(label),
			util.OrDash(entries),
			util.OrDash(size),
			util.OrDash(modified),
			row.st.Path,
		})
	}

	pterm.Println()
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	pterm.Println()

	if status.Target.Error != "" {
		pterm.Warning.Printf("Target is not a readable bundle: %s\n", status.Target.Error)
	}
	if status.Backup.Error != "" {
		pterm.Warning.Printf("Backup is not a readable bundle: %s\n", status.Backup.Error)
	}
}
