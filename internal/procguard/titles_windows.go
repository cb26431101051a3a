//go:build windows

package procguard

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
)

// annotateTitles sets Title to the longest visible top-level window title
// owned by each process.
func annotateTitles(procs []Process) error {
	titles := make(map[uint32]string)

	cb := windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		if !windows.IsWindowVisible(hwnd) {
			return 1
		}
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
			return 1
		}
		n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
		if n == 0 {
			return 1
		}
		buf := make([]uint16, n+1)
		procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if title := windows.UTF16ToString(buf); len(title) > len(titles[pid]) {
			titles[pid] = title
		}
		return 1
	})

	if err := windows.EnumWindows(cb, nil); err != nil {
		return err
	}

	for i := range procs {
		procs[i].Title = titles[uint32(procs[i].PID)]
	}
	return nil
}
