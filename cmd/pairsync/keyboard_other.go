//go:build !linux && !darwin && !windows

package main

import (
	"context"

	"github.com/abrezinsky/pairsync/internal/logger"
)

// listenForKeyboard is unavailable on this platform
func listenForKeyboard(ctx context.Context, baseURL string, appLog logger.Logger, quit func()) {
	appLog.Debug("Keyboard shortcuts are not supported on this platform")
}
