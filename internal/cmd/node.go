package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/padlink/padlink/buslink"
	"github.com/padlink/padlink/consolelink"
	"github.com/padlink/padlink/internal/configpaths"
	"github.com/padlink/padlink/internal/eeprom"
	"github.com/padlink/padlink/internal/log"
	"github.com/padlink/padlink/internal/usbhost"
	"github.com/padlink/padlink/internal/util"
	"github.com/padlink/padlink/node"
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
)

// Node runs a bridge node. The coordinator polls the connected gamepads and
// serves console slot 1 itself; the remaining slots reach their consoles
// through peer nodes on the shared bus. With the loopback bus the peers run
// in-process and their console servers listen on the ports following
// --listen.
type Node struct {
	Bus      string `help:"I2C adapter device path, or 'mem' for the in-process loopback bus" default:"mem" env:"PADLINK_BUS"`
	Peers    int    `help:"Additional in-process nodes on the loopback bus (0-3)" default:"3" env:"PADLINK_PEERS"`
	Listen   string `help:"USB/IP listen address for console slot 1" default:":3240" env:"PADLINK_LISTEN"`
	Settings string `help:"Controller settings file (defaults to the config directory)" env:"PADLINK_SETTINGS"`

	Install   bool `help:"Install and start a systemd service for the node, then exit (linux only)"`
	Uninstall bool `help:"Stop and remove the systemd service, then exit (linux only)"`
}

// Run is called by Kong when the node command is executed.
func (n *Node) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	if n.Install {
		return install(logger)
	}
	if n.Uninstall {
		return uninstall(logger)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := n.Start(ctx, logger, rawLogger)
	if err != nil && util.IsRunFromGUI() {
		fmt.Println("Press any key to exit...")
		b := make([]byte, 1)
		_, _ = os.Stdin.Read(b)
	}
	return err
}

func (n *Node) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if n.Peers < 0 || n.Peers >= int(xinput.MaxGamepads) {
		return fmt.Errorf("peers must be between 0 and %d", xinput.MaxGamepads-1)
	}
	host, basePort, err := splitListen(n.Listen)
	if err != nil {
		return err
	}

	settings := n.Settings
	if settings == "" {
		p, err := configpaths.DefaultSettingsPath()
		if err != nil {
			return fmt.Errorf("resolve settings path: %w", err)
		}
		settings = p
	}
	if err := configpaths.EnsureDir(settings); err != nil {
		return err
	}
	store, err := eeprom.OpenFile(settings)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source := usbhost.NewSource(logger)
	defer func() { _ = source.Close() }()

	srvErr := make(chan error, 1)
	serve := func(srv *consolelink.Server) {
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				select {
				case srvErr <- err:
				default:
				}
			}
		}()
	}

	var bus buslink.Bus
	if n.Bus == "mem" {
		loop := buslink.NewLoopback()
		for id := 1; id <= n.Peers; id++ {
			plog := logger.With("node", id)
			link := consolelink.NewLink()
			emu := xid.New(link, plog)
			peer := node.NewPeer(uint8(id), loop.Peer(uint8(id)), emu, plog)
			serve(consolelink.NewServer(net.JoinHostPort(host, strconv.Itoa(basePort+id)), emu, link, plog, rawLogger))
			go func() { _ = peer.Run(ctx) }()
		}
		bus = loop
	} else {
		bus, err = openBus(n.Bus)
		if err != nil {
			return fmt.Errorf("open bus %s: %w", n.Bus, err)
		}
	}

	logger.Info("starting padlink node", "bus", n.Bus, "listen", n.Listen, "peers", n.Peers)

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	link := consolelink.NewLink()
	emu := xid.New(link, logger)
	serve(consolelink.NewServer(net.JoinHostPort(host, strconv.Itoa(basePort)), emu, link, logger, rawLogger))

	coord := node.NewCoordinator(source, bus, emu, store, logger)
	runErr := make(chan error, 1)
	go func() { runErr <- coord.Run(ctx) }()

	select {
	case err := <-srvErr:
		cancel()
		<-runErr
		return err
	case err := <-runErr:
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

func splitListen(addr string) (string, int, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen port %q: %w", port, err)
	}
	return host, p, nil
}
