//go:build linux

package cmd

import "github.com/padlink/padlink/buslink"

func openBus(path string) (buslink.Bus, error) {
	return buslink.OpenI2C(path)
}
