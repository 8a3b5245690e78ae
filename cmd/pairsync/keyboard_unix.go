//go:build linux || darwin

package main

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	"github.com/abrezinsky/pairsync/internal/logger"
)

// listenForKeyboard reads single keys from stdin until ctx ends or quit is chosen.
// Canonical mode and echo are switched off; output processing stays on so log
// lines still end with a carriage return.
func listenForKeyboard(ctx context.Context, baseURL string, appLog logger.Logger, quit func()) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &newState); err != nil {
		return
	}
	restore := func() { unix.IoctlSetTermios(fd, ioctlSetTermios, oldState) }
	defer restore()

	keys := readKeys(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}
			if !handleKey(key, baseURL, appLog, quit) {
				return
			}
		}
	}
}
