//go:build !windows

package util

func IsRunFromGUI() bool {
	// Only meaningful on Windows, where double-clicking the binary is a
	// common way to start the node. Elsewhere there is systemd, nohup and
	// a shell.
	return false
}

func HideConsoleWindow() {
	// No-op on non-Windows platforms
}
