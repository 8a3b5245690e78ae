package main

import (
	"fmt"
	"strings"

	"github.com/abrezinsky/pairsync/internal/browser"
	"github.com/abrezinsky/pairsync/internal/logger"
)

// handleKey performs the action bound to key. It returns false when the
// listener should stop.
func handleKey(key byte, baseURL string, appLog logger.Logger, quit func()) bool {
	switch strings.ToLower(string(key)) {
	case "a":
		openForm(baseURL + "/forms/match")
	case "t":
		openForm(baseURL + "/forms/team")
	case "h":
		if appLog.IsHTTPLoggingEnabled() {
			appLog.DisableHTTPLogging()
			fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			appLog.EnableHTTPLogging()
			fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		cycleLogLevel(appLog)
	case "q", "\x03": // Ctrl+C arrives as a byte in raw mode
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		quit()
		return false
	case "?":
		printKeyboardHelp()
	}
	return true
}

func openForm(url string) {
	fmt.Printf("%sOpening %s in browser...%s\n", cyan, url, reset)
	if err := browser.Open(url); err != nil {
		fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
	}
}
