package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/abrezinsky/pairsync/internal/app"
	"github.com/abrezinsky/pairsync/internal/config"
	"github.com/abrezinsky/pairsync/internal/handlers"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
	"github.com/abrezinsky/pairsync/web"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

// showBanner prints the logo boxed in the terminal
func showBanner() {
	logo := []string{
		"                  _                            ",
		"  _ __   __ _(_)_ __ ___ _   _ _ __   ___      ",
		" | '_ \\ / _` | | '__/ __| | | | '_ \\ / __|     ",
		" | |_) | (_| | | |  \\__ \\ |_| | | | | (__      ",
		" | .__/ \\__,_|_|_|  |___/\\__, |_| |_|\\___|     ",
		" |_|                     |___/                 ",
	}
	width := 0
	for _, line := range logo {
		if len(line) > width {
			width = len(line)
		}
	}
	border := strings.Repeat("═", width)

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, width, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// showQRCode prints a scannable QR code of url using half-block characters
func showQRCode(url string) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		fmt.Printf("%sCannot render QR code: %v%s\n", red, err, reset)
		return
	}
	fmt.Println(q.ToSmallString(false))
	fmt.Printf("  %s%s%s\n\n", bold, url, reset)
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog logger.Logger) {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	default:
		next = "debug"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, next, reset)
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sa%s      - Open the match form in browser\n", cyan, reset)
	fmt.Printf("    %st%s      - Open the team form in browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

// newClient builds the tournament API client; demo mode uses canned data
func newClient(cfg config.Config, appLog logger.Logger) tournamentapi.Client {
	if cfg.Demo {
		return tournamentapi.NewMockClient(tournamentapi.WithLatency(300 * time.Millisecond))
	}
	client := tournamentapi.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout, appLog)
	if cfg.APICookie != "" {
		client.SetHeader("Cookie", cfg.APICookie)
	}
	return client
}

func demoFixtures(cfg config.Config) handlers.Fixtures {
	if !cfg.Demo {
		return handlers.Fixtures{}
	}
	return handlers.Fixtures{
		Tournaments: tournamentapi.DefaultMockTournaments(),
		Players:     tournamentapi.DefaultMockPlayers(),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to read environment:", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Tournament backend base URL")
	flag.StringVar(&cfg.APICookie, "cookie", cfg.APICookie, "Cookie header forwarded to the backend")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.StaleResponses, "stale", cfg.StaleResponses, "Out-of-order responses: discard or apply")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Backend request timeout")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Base URL shown in QR codes (detected if empty)")
	flag.BoolVar(&cfg.Demo, "demo", cfg.Demo, "Serve canned tournaments instead of calling the backend")
	flag.BoolVar(&cfg.NoKeyboard, "nokeyboard", cfg.NoKeyboard, "Disable keyboard shortcuts")
	noQR := flag.Bool("noqr", false, "Do not print the form QR code")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pairsync - paired select boxes for tournament admin forms

Usage:
  pairsync [options]

Options:
  -port int         HTTP server port (default 8082, env PAIRSYNC_PORT)
  -api string       Tournament backend base URL (env PAIRSYNC_API_BASE_URL)
  -cookie string    Cookie header forwarded to the backend (env PAIRSYNC_API_COOKIE)
  -loglevel str     Log level: debug, info, warn, error (env PAIRSYNC_LOG_LEVEL)
  -stale str        Out-of-order responses: discard or apply (env PAIRSYNC_STALE_RESPONSES)
  -timeout dur      Backend request timeout (default 10s, env PAIRSYNC_REQUEST_TIMEOUT)
  -public-url str   Base URL shown in QR codes (env PAIRSYNC_PUBLIC_URL)
  -demo             Serve canned tournaments (env PAIRSYNC_DEMO)
  -nokeyboard       Disable keyboard shortcuts (env PAIRSYNC_NO_KEYBOARD)
  -noqr             Do not print the form QR code
  -version          Show version and exit
  -help             Show this help message

Keyboard Shortcuts (when enabled):
  a              Open the match form in browser
  t              Open the team form in browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help

Examples:
  pairsync -demo                                  # Try the forms without a backend
  pairsync -api https://league.example.com        # Use a live backend
  pairsync -stale apply                           # Last response wins

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pairsync %s\n", version)
		os.Exit(0)
	}

	showBanner()

	appLog := logger.NewWithLevel(cfg.Level())

	client := newClient(cfg, appLog)
	a, err := app.New(appLog, cfg, client, demoFixtures(cfg), web.GetTemplatesFS(), web.GetStaticFS())
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	if cfg.Demo {
		appLog.Info("Demo mode: serving canned tournaments")
	}
	appLog.Info("Tournament API", "url", client.BaseURL(), "timeout", cfg.RequestTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formURL := a.PublicURL() + "/forms/match"
	if !*noQR {
		showQRCode(formURL)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if !cfg.NoKeyboard && interactive {
		printKeyboardHelp()
		go listenForKeyboard(ctx, a.PublicURL(), appLog, stop)
	} else if !cfg.NoKeyboard {
		appLog.Debug("Stdin is not a terminal, keyboard shortcuts disabled")
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
