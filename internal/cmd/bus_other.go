//go:build !linux

package cmd

import (
	"errors"

	"github.com/padlink/padlink/buslink"
)

func openBus(string) (buslink.Bus, error) {
	return nil, errors.New("i2c adapters are only supported on linux; use --bus=mem")
}
