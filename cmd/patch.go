package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ezblocker/spapatch/internal/patcher"
	"github.com/ezblocker/spapatch/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Inject the EZBlocker worker into the bundle",
	Long: `Stop Spotify, inject the EZBlocker worker into zlink.spa, rebuild the
bundle and swap it into place, then start Spotify again.

The previous bundle is saved to the backup slot first. If any step fails
the backup is copied back over the target.`,
	Example: `  # Patch the default install
  spapatch patch

  # Show what would change without touching anything
  spapatch patch --dry-run

  # Patch a copy of the bundle
  spapatch patch --target ./zlink.spa --scratch-root ./work --no-kill --no-relaunch`,
	Args: cobra.NoArgs,
	RunE: runPatch,
}

func init() {
	addPatchFlags(patchCmd.Flags())
}

func addPatchFlags(flags *pflag.FlagSet) {
	flags.Bool("dry-run", false, "Show the markup diff without building or swapping")
	flags.Bool("no-kill", false, "Do not stop the running application")
	flags.Bool("no-relaunch", false, "Do not start the application afterwards")
}

func runPatch(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noKill, _ := cmd.Flags().GetBool("no-kill")
	noRelaunch, _ := cmd.Flags().GetBool("no-relaunch")

	var opts []patcher.Option
	if noKill {
		opts = append(opts, patcher.WithoutStop())
	}
	if noRelaunch {
		opts = append(opts, patcher.WithoutRelaunch())
	}

	p, err := newPatcher(cmd, opts...)
	if err != nil {
		return err
	}

	if dryRun {
		return runPreview(p)
	}

	pterm.Info.Printf("Patching %s\n", p.Config().Paths.Target)
	res, err := p.Patch()
	if errors.Is(err, patcher.ErrBusy) {
		pterm.Warning.Println("Another spapatch run holds the scratch directory. Try again once it finishes.")
		return err
	}
	if res != nil {
		printResult(p.Config(), res)
	}
	if err != nil {
		pterm.Error.Printf("Patch failed: %v\n", err)
		if res != nil && res.RolledBack {
			pterm.Info.Println("The previous bundle was restored from the backup.")
		}
		return err
	}

	if res.AlreadyPatched {
		pterm.Success.Println("Bundle was already patched; rebuilt and refreshed the backup.")
	} else {
		pterm.Success.Println("Bundle patched.")
	}
	return nil
}

func runPreview(p *patcher.Patcher) error {
	pv, err := p.Preview()
	if err != nil {
		return err
	}
	if pv.AlreadyPatched {
		pterm.Info.Println("Bundle is already patched; nothing would change in the markup.")
		return nil
	}

	pterm.Info.Printf("Would add %s (%s)\n", patcher.WorkerEntry, util.FormatBytes(int64(len(pv.Worker))))
	for _, s := range pv.Unmatched {
		pterm.Warning.Printf("No match for %q\n", s)
	}
	pterm.Println()
	fmt.Print(pv.Diff)
	return nil
}

func printResult(cfg patcher.Config, res *patcher.Result) {
	tableData := pterm.TableData{
		{"Property", "Value"},
		{"Target", cfg.Paths.Target},
		{"Backup", cfg.Paths.Backup},
		{"State", string(res.State)},
		{"Already Patched", strconv.FormatBool(res.AlreadyPatched)},
		{"Entries", util.OrDash(entriesLabel(res.Entries))},
		{"Size", util.OrDash(sizeLabel(res.Bytes))},
		{"Stop Owner", res.Stopped.String()},
		{"Relaunch", res.Relaunched.String()},
	}
	if len(res.Unmatched) > 0 {
		tableData = append(tableData, []string{"Unmatched", strconv.Itoa(len(res.Unmatched))})
	}
	if res.RolledBack {
		tableData = append(tableData, []string{"Rolled Back", "true"})
	}

	pterm.Println()
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	pterm.Println()
}

func entriesLabel(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func sizeLabel(n int64) string {
	if n == 0 {
		return ""
	}
	return util.FormatBytes(n)
}
