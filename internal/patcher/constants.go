// Package patcher injects a status-reporting worker into the Spotify zlink
// bundle and swaps the patched bundle into place, keeping a backup of the
// previous one.
package patcher

const (
	// AppName is the application directory under the platform app-data dir
	AppName = "Spotify"

	// ProcessName is the name of the process that holds the bundle open
	ProcessName = "spotify"

	// BundleName is the bundle's base name inside the Apps directory
	BundleName = "zlink"

	// BundleExt is the bundle file extension
	BundleExt = ".spa"

	// ToolName names the scratch root under the system temp directory
	ToolName = "EZBlocker"

	// BackupName is the backup slot's file name inside the scratch root
	BackupName = "backup.spa"

	// MarkupEntry is the bundle entry that receives the text substitutions
	MarkupEntry = "index.html"

	// WorkerEntry is the injected script's entry; its presence marks a patched bundle
	WorkerEntry = "worker.js"

	// DefaultListenerPort is the localhost port the worker reports to
	DefaultListenerPort = 19691

	// DefaultWebsite is opened by the rewritten upgrade button
	DefaultWebsite = "https://www.ericzhang.me/projects/spotify-ad-blocker-ezblocker/"

	// lockName is the advisory lock file serializing invocations per scratch root
	lockName = ".lock"
)
