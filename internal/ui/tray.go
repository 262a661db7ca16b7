// Package ui runs the system tray entry for the agent.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/clipmark/clipmark-agent/internal/clip"
)

type Tray struct {
	service clip.Service
	logger  *slog.Logger

	statusItem  *systray.MenuItem
	pendingItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Service clip.Service
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		service: cfg.Service,
		logger:  cfg.Logger,
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipmark")
	systray.SetTooltip("Clipmark Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.pendingItem = systray.AddMenuItem("Downloads: 0 pending", "Queued clip extractions")
	t.pendingItem.Disable()

	systray.AddSeparator()

	clearItem := systray.AddMenuItem("Clear Downloaded Clips", "Remove every downloaded clip from the store")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Clipmark Agent")

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-clearItem.ClickedCh:
				t.handleClearDownloaded()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.service.QueueLength()
	t.pendingItem.SetTitle(fmt.Sprintf("Downloads: %d pending", pending))

	switch {
	case pending > 0:
		t.statusItem.SetTitle("Status: Downloading")
	case t.service.Dirty():
		t.statusItem.SetTitle("Status: Unsaved edits")
	default:
		t.statusItem.SetTitle("Status: Idle")
	}
}

func (t *Tray) handleClearDownloaded() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.service.ClearDownloaded(ctx); err != nil {
		t.logger.Error("failed to clear downloaded clips", "error", err)
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
