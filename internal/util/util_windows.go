//go:build windows

package util

import (
	"log/slog"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

// IsRunFromGUI reports whether the process was started by double-clicking
// rather than from a shell, so the launcher can default to the node command.
func IsRunFromGUI() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return true
	}

	parent := parentProcessName()
	slog.Debug("startup parent process", "name", parent)
	if isShell(parent) {
		return false
	}
	return strings.EqualFold(parent, "explorer.exe")
}

func HideConsoleWindow() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return
	}
	_, _, _ = procShowWindow.Call(hwnd, windows.SW_HIDE)
	_, _, _ = procFreeConsole.Call()
}

func parentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	pid := findProcess(snapshot, func(pe *windows.ProcessEntry32) bool {
		return pe.ProcessID == uint32(os.Getpid())
	})
	if pid == nil || pid.ParentProcessID == 0 {
		return ""
	}
	parent := findProcess(snapshot, func(pe *windows.ProcessEntry32) bool {
		return pe.ProcessID == pid.ParentProcessID
	})
	if parent == nil {
		return ""
	}
	return windows.UTF16ToString(parent.ExeFile[:])
}

// findProcess walks the snapshot from the start and returns the first entry
// matching the predicate.
func findProcess(snapshot windows.Handle, match func(*windows.ProcessEntry32) bool) *windows.ProcessEntry32 {
	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	if err := windows.Process32First(snapshot, &pe); err != nil {
		return nil
	}
	for {
		if match(&pe) {
			found := pe
			return &found
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			return nil
		}
	}
}

func isShell(name string) bool {
	shells := []string{
		"cmd.exe",
		"powershell.exe",
		"pwsh.exe",
		"wt.exe",
		"conhost.exe",
		"windowsterminal.exe",
	}
	name = strings.ToLower(name)
	for _, s := range shells {
		if name == s {
			return true
		}
	}
	return false
}
