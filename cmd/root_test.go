package cmd

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ezblocker/spapatch/internal/patcher"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundleMarkup = `<html><head>
<script type="text/javascript" src="/zlink.bundle.js"></script>
</head><body onclick="openProductUpgradePage()" title=UPGRADE_TOOLTIP_TEXT>UPGRADE_LABEL</body></html>`

var outBuf bytes.Buffer

func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.DisableColor()
	pterm.SetDefaultOutput(&outBuf)
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableColor()
	})
}

// isolateEnv keeps the defaults away from the real user profile.
func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	t.Setenv(configEnv, "")
}

func writeBundle(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range []struct{ name, body string }{
		{patcher.MarkupEntry, bundleMarkup},
		{"zlink.bundle.js", "console.log('zlink')"},
	} {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newTestCommand(run func(*cobra.Command, []string) error, extra ...func(*pflag.FlagSet)) *cobra.Command {
	c := &cobra.Command{Use: "test", RunE: run, SilenceUsage: true, SilenceErrors: true}
	addConfigFlags(c.Flags())
	for _, fn := range extra {
		fn(c.Flags())
	}
	return c
}

func execute(t *testing.T, c *cobra.Command, args ...string) error {
	t.Helper()
	c.SetArgs(args)
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	return c.Execute()
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "spapatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
paths:
  target: /from/file/zlink.spa
website: https://file.example
listener_port: 2000
`), 0644))

	var got patcher.Config
	c := newTestCommand(func(cmd *cobra.Command, args []string) error {
		var err error
		got, err = loadConfig(cmd)
		return err
	})

	scratch := filepath.Join(dir, "scratch")
	require.NoError(t, execute(t, c, "--config", cfgPath, "--port", "3000", "--scratch-root", scratch))

	assert.Equal(t, "/from/file/zlink.spa", got.Paths.Target)
	assert.Equal(t, "https://file.example", got.Website)
	assert.Equal(t, 3000, got.ListenerPort)
	assert.Equal(t, scratch, got.Paths.ScratchRoot)
	assert.Equal(t, filepath.Join(scratch, patcher.BackupName), got.Paths.Backup)
}

func TestLoadConfigFromEnv(t *testing.T) {
	isolateEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("process_name: spotify-beta\n"), 0644))
	t.Setenv(configEnv, cfgPath)

	var got patcher.Config
	c := newTestCommand(func(cmd *cobra.Command, args []string) error {
		var err error
		got, err = loadConfig(cmd)
		return err
	})
	require.NoError(t, execute(t, c))
	assert.Equal(t, "spotify-beta", got.ProcessName)
}

func TestFlagOverlayIgnoresUnsetFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(flags)
	require.NoError(t, flags.Parse([]string{"--website", "https://x.example"}))

	overlay := flagOverlay(flags)
	assert.Equal(t, "https://x.example", overlay.Website)
	assert.Empty(t, overlay.Paths.Target)
	assert.Zero(t, overlay.ListenerPort)
}

func TestPatchStatusRestore(t *testing.T) {
	isolateEnv(t)
	setupStdoutCapture(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "Apps", "zlink.spa")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	writeBundle(t, target)
	original, err := os.ReadFile(target)
	require.NoError(t, err)

	common := []string{"--target", target, "--scratch-root", filepath.Join(dir, "scratch")}

	patch := newTestCommand(runPatch, addPatchFlags)
	require.NoError(t, execute(t, patch, append(common, "--no-kill", "--no-relaunch")...))
	assert.Contains(t, outBuf.String(), "Bundle patched.")

	r, err := zip.OpenReader(target)
	require.NoError(t, err)
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	require.NoError(t, r.Close())
	assert.Contains(t, names, patcher.WorkerEntry)

	outBuf.Reset()
	status := newTestCommand(runStatus, func(fs *pflag.FlagSet) { fs.StringP("output", "o", "", "") })
	require.NoError(t, execute(t, status, common...))
	assert.Contains(t, outBuf.String(), "Patched")
	assert.Contains(t, outBuf.String(), "Not patched")

	outBuf.Reset()
	restore := newTestCommand(runRestore)
	require.NoError(t, execute(t, restore, common...))
	assert.Contains(t, outBuf.String(), "Backup restored.")

	restored, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestPatchDryRunLeavesTargetAlone(t *testing.T) {
	isolateEnv(t)
	setupStdoutCapture(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "zlink.spa")
	writeBundle(t, target)
	before, err := os.ReadFile(target)
	require.NoError(t, err)

	stdout := os.Stdout
	pr, pw, _ := os.Pipe()
	os.Stdout = pw
	t.Cleanup(func() { os.Stdout = stdout })

	patch := newTestCommand(runPatch, addPatchFlags)
	err = execute(t, patch, "--target", target, "--scratch-root", filepath.Join(dir, "scratch"), "--dry-run")
	pw.Close()
	require.NoError(t, err)

	var diff bytes.Buffer
	_, _ = io.Copy(&diff, pr)
	assert.Contains(t, diff.String(), "+++ b/index.html")
	assert.Contains(t, diff.String(), "openWebsite")
	assert.Contains(t, outBuf.String(), patcher.WorkerEntry)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPatchMissingTargetFails(t *testing.T) {
	isolateEnv(t)
	setupStdoutCapture(t)
	dir := t.TempDir()

	patch := newTestCommand(runPatch, addPatchFlags)
	err := execute(t, patch, "--target", filepath.Join(dir, "nope.spa"), "--scratch-root", filepath.Join(dir, "scratch"), "--no-kill", "--no-relaunch")
	require.Error(t, err)
	assert.ErrorIs(t, err, patcher.ErrExtraction)
	assert.Contains(t, outBuf.String(), "Patch failed")
}

func TestStatusJSON(t *testing.T) {
	isolateEnv(t)
	setupStdoutCapture(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "zlink.spa")
	writeBundle(t, target)

	stdout := os.Stdout
	pr, pw, _ := os.Pipe()
	os.Stdout = pw
	t.Cleanup(func() { os.Stdout = stdout })

	status := newTestCommand(runStatus, func(fs *pflag.FlagSet) { fs.StringP("output", "o", "", "") })
	err := execute(t, status, "--target", target, "--scratch-root", filepath.Join(dir, "scratch"), "-o", "json")
	pw.Close()
	require.NoError(t, err)

	var got patcher.Status
	require.NoError(t, json.NewDecoder(pr).Decode(&got))
	assert.True(t, got.Target.Exists)
	assert.Equal(t, 2, got.Target.Entries)
	assert.False(t, got.Target.Patched)
	assert.False(t, got.Backup.Exists)
}

func TestStatusRejectsUnknownFormat(t *testing.T) {
	status := newTestCommand(runStatus, func(fs *pflag.FlagSet) { fs.StringP("output", "o", "", "") })
	err := execute(t, status, "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestVersionString(t *testing.T) {
	old := metadata
	t.Cleanup(func() { metadata = old })

	metadata = Metadata{Version: "1.2.3"}
	assert.Equal(t, "1.2.3", versionString())

	metadata = Metadata{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}
	assert.Equal(t, "1.2.3 (abc123, 2026-01-02)", versionString())
}

func TestCompletionScripts(t *testing.T) {
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetArgs([]string{"completion", shell})
			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, buf.String(), "spapatch")
		})
	}

	rootCmd.SetArgs([]string{"completion", "tcsh"})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	assert.Error(t, rootCmd.Execute())
}
