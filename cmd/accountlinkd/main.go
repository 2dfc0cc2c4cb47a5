// Package main provides the entry point for the account link daemon.
// The daemon keeps a signed-in identity-provider session alive for the
// desktop application: it opens the authorization URL, catches the redirect
// on a loopback listener, exchanges and refreshes tokens in the background,
// and persists credentials across restarts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/printforge/accountlink/internal/browser"
	"github.com/printforge/accountlink/internal/callback"
	"github.com/printforge/accountlink/internal/comm"
	"github.com/printforge/accountlink/internal/config"
	"github.com/printforge/accountlink/internal/logging"
	"github.com/printforge/accountlink/internal/secretstore"
	"github.com/printforge/accountlink/internal/session"
	"github.com/printforge/accountlink/internal/watcher"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	fmt.Printf("accountlinkd Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)

	var configPath string
	var debug bool
	var noBrowser bool
	var login bool

	flag.StringVar(&configPath, "config", "config.yaml", "Configure File Path")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for authorization")
	flag.BoolVar(&login, "login", false, "Start an interactive login immediately")
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

	cfg, errConfig := config.LoadConfig(configPath)
	if errConfig != nil {
		log.Fatalf("failed to load config: %v", errConfig)
	}
	applyEnvOverrides(cfg)
	if debug {
		cfg.Debug = true
	}
	logging.SetDebug(cfg.Debug)
	if cfg.LogDir != "" {
		if errLog := logging.SetupFileLogging(cfg.LogDir); errLog != nil {
			log.Warnf("file logging disabled: %v", errLog)
		}
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		log.Fatal("client-id is not configured; set it in the config file or ACCOUNTLINK_CLIENT_ID")
	}

	store := secretstore.NewFileStore(secretsPath(cfg))
	sink := session.NewChannelSink(64)

	communication, errComm := comm.New(comm.Options{
		Config: cfg,
		Store:  store,
		Sink:   sink,
	})
	if errComm != nil {
		log.Fatalf("failed to start account communication: %v", errComm)
	}

	callbackServer := callback.NewServer(cfg.CallbackPort)
	if errStart := callbackServer.Start(); errStart != nil {
		communication.Close()
		log.Fatalf("failed to start callback server: %v", errStart)
	}

	configWatcher, errWatcher := watcher.NewWatcher(configPath, func(updated *config.Config) {
		logging.SetDebug(updated.Debug)
		communication.SetPollingEnabled(updated.ConnectPolling)
		communication.SetRememberSession(updated.RememberSession)
	})
	if errWatcher != nil {
		log.Warnf("config hot reload unavailable: %v", errWatcher)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configWatcher != nil {
		if errWatch := configWatcher.Start(ctx); errWatch != nil {
			log.Warnf("config hot reload disabled: %v", errWatch)
			configWatcher = nil
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// UI-bound events. The daemon is headless, so the browser hand-off is the
	// only event with a side effect; the rest are logged for the host process.
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case ev := <-sink.C:
				handleEvent(ev, noBrowser)
			}
		}
	})

	// Redirect payloads caught by the loopback listener.
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case payload := <-callbackServer.Payloads():
				communication.ReceiveLoginCode(payload)
			}
		}
	})

	if login {
		communication.Login()
	}

	log.Infof("accountlinkd started, callback on 127.0.0.1:%d", callbackServer.Port())
	if errWait := group.Wait(); errWait != nil && !errors.Is(errWait, context.Canceled) {
		log.Errorf("daemon loop terminated: %v", errWait)
	}

	log.Info("shutting down")
	if configWatcher != nil {
		_ = configWatcher.Stop()
	}
	_ = callbackServer.Stop(context.Background())
	communication.Close()
}

// handleEvent reacts to one session event. Only the authorization URL needs
// handling in a headless daemon; everything else is surfaced via the log.
func handleEvent(ev session.Event, noBrowser bool) {
	switch ev.Kind {
	case session.EventOpenAuthURL:
		if noBrowser {
			fmt.Printf("Open this URL to sign in:\n%s\n", ev.Payload)
			return
		}
		if err := browser.OpenAuthURL(ev.Payload); err != nil {
			log.Warnf("could not open browser: %v", err)
			fmt.Printf("Open this URL to sign in:\n%s\n", ev.Payload)
		}
	case session.EventLoginSucceeded:
		log.Infof("logged in as %s", ev.Payload)
	case session.EventLoginFailed:
		log.Warnf("login failed: %s", ev.Payload)
	case session.EventLoggedOut:
		log.Info("logged out")
	case session.EventActionFailed:
		log.Warnf("background action failed: %s", ev.Payload)
	default:
		log.Debugf("event %s (%d bytes)", ev.Kind, len(ev.Data))
	}
}

// applyEnvOverrides lets deployment environments override the endpoints and
// client id without editing the config file.
func applyEnvOverrides(cfg *config.Config) {
	lookupEnv := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if value, ok := os.LookupEnv(key); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed, true
				}
			}
		}
		return "", false
	}
	if value, ok := lookupEnv("ACCOUNTLINK_CLIENT_ID", "accountlink_client_id"); ok {
		cfg.ClientID = value
	}
	if value, ok := lookupEnv("ACCOUNTLINK_AUTH_HOST", "accountlink_auth_host"); ok {
		cfg.AuthHost = strings.TrimRight(value, "/")
	}
	if value, ok := lookupEnv("ACCOUNTLINK_CONNECT_HOST", "accountlink_connect_host"); ok {
		cfg.ConnectHost = strings.TrimRight(value, "/")
	}
}

// secretsPath resolves the credential store file, defaulting to a dot
// directory in the user's home.
func secretsPath(cfg *config.Config) string {
	dir := cfg.SecretsDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warnf("cannot resolve home directory: %v, storing secrets in working directory", err)
			home = "."
		}
		dir = filepath.Join(home, config.DefaultSecretsDirName)
	}
	return filepath.Join(dir, config.DefaultSecretsFileName)
}
