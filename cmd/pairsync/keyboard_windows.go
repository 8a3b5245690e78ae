//go:build windows

package main

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/abrezinsky/pairsync/internal/logger"
)

// listenForKeyboard reads single keys from the console until ctx ends or quit is chosen
func listenForKeyboard(ctx context.Context, baseURL string, appLog logger.Logger, quit func()) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)

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
