// Package main provides the entry point for the Sign in with Apple webview host.
// The host drives an embedded webview (or the system browser) through Apple's
// authorization page, intercepts the redirect and reports the authorization code.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/router-for-me/AppleWebAuth/internal/buildinfo"
	"github.com/router-for-me/AppleWebAuth/internal/cmd"
	"github.com/router-for-me/AppleWebAuth/internal/config"
	"github.com/router-for-me/AppleWebAuth/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration and runs either the
// login flow or the offline inspection of a saved callback page.
func main() {
	fmt.Printf("AppleWebAuth Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var configPath string
	var mode string
	var noBrowser bool
	var copyCode bool
	var state string
	var inspectPath string
	var port int

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.StringVar(&mode, "mode", cmd.ModeRelay, "Login mode: relay (embedded webview shell) or callback (system browser)")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically in callback mode")
	flag.BoolVar(&copyCode, "copy-code", false, "Copy the authorization code to the clipboard")
	flag.StringVar(&state, "state", "", "Use this anti-forgery state instead of a random one")
	flag.StringVar(&inspectPath, "inspect", "", "Classify a saved callback HTML page against -state and exit")
	flag.IntVar(&port, "port", 0, "Override the listener port")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if inspectPath != "" {
		if errInspect := cmd.DoInspect(inspectPath, state, os.Stdout); errInspect != nil {
			log.Errorf("inspect failed: %v", errInspect)
			os.Exit(1)
		}
		return
	}

	if configPath == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}
	cfg.ApplyEnv(os.LookupEnv)
	if port > 0 {
		cfg.Port = port
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	cmd.DoAppleLogin(cfg, &cmd.LoginOptions{
		Mode:      mode,
		NoBrowser: noBrowser,
		CopyCode:  copyCode,
		State:     state,
		Prompt:    stdinPrompt(),
	})
}

func stdinPrompt() func(string) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	return func(prompt string) (string, error) {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}
