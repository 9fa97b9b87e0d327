package discdetect

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"platter/internal/logging"
)

// InsertHandler is invoked from the monitor goroutine when media appears in
// the watched drive.
type InsertHandler func(ctx context.Context, device string)

// Monitor watches udev netlink events for media insertion on one optical
// drive. A failed netlink connection is non-fatal: conversion still works from
// manually named sources, only automatic detection is lost.
type Monitor struct {
	device  string
	logger  *slog.Logger
	handler InsertHandler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor builds a monitor for the given device path. An empty device
// disables monitoring and yields nil.
func NewMonitor(device string, logger *slog.Logger, handler InsertHandler) *Monitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		device:  device,
		logger:  logging.WithComponent(logger, "disc-monitor"),
		handler: handler,
	}
}

// Start connects to the udev netlink socket and begins watching.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink connect failed, automatic disc detection disabled",
			logging.Error(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	go m.loop(ctx, m.quit, conn)

	m.logger.Info("disc monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts the monitor down.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.quit)
	m.quit = nil
	_ = m.conn.Close()
	m.conn = nil
	m.running = false
	m.logger.Info("disc monitor stopped")
}

// Running reports whether the monitor holds an open netlink connection.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, quit <-chan struct{}, conn *netlink.UEventConn) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, discMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// discMatcher matches media-insertion events: a block-subsystem add or change
// carrying the cdrom media flags.
func discMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	device := deviceName(uevent)
	if device == "" || device != m.device {
		return
	}
	m.logger.Info("disc media detected",
		logging.String("device", device),
		logging.String("action", string(uevent.Action)))
	if m.handler != nil {
		m.handler(ctx, device)
	}
}

// deviceName resolves the device path of a uevent, preferring DEVNAME and
// falling back to the last DEVPATH element.
func deviceName(uevent netlink.UEvent) string {
	if name := uevent.Env["DEVNAME"]; name != "" {
		return name
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
