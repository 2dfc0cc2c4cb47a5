// Package account provides the public SDK surface of the account link
// engine.
//
// It re-exports the orchestrator, event and credential types so external
// projects can embed the login/session machinery without importing internal
// packages.
package account

import (
	internalcomm "github.com/printforge/accountlink/internal/comm"
	internalconfig "github.com/printforge/accountlink/internal/config"
	internalsecrets "github.com/printforge/accountlink/internal/secretstore"
	internalsession "github.com/printforge/accountlink/internal/session"
	internaltoken "github.com/printforge/accountlink/internal/token"
)

type Communication = internalcomm.Communication

type Options = internalcomm.Options

type Config = internalconfig.Config

type Event = internalsession.Event
type EventKind = internalsession.EventKind
type EventSink = internalsession.EventSink
type ChannelSink = internalsession.ChannelSink

type TokenRecord = internaltoken.Record

type SecretStore = internalsecrets.Store
type FileStore = internalsecrets.FileStore
type MemStore = internalsecrets.MemStore

const (
	EventOpenAuthURL          = internalsession.EventOpenAuthURL
	EventLoginSucceeded       = internalsession.EventLoginSucceeded
	EventLoginFailed          = internalsession.EventLoginFailed
	EventLoggedOut            = internalsession.EventLoggedOut
	EventConnectStatus        = internalsession.EventConnectStatus
	EventConnectPrinterModels = internalsession.EventConnectPrinterModels
	EventPrinterData          = internalsession.EventPrinterData
	EventAvatarReady          = internalsession.EventAvatarReady
	EventActionFailed         = internalsession.EventActionFailed
)

func New(opts Options) (*Communication, error) { return internalcomm.New(opts) }

func LoadConfig(configFile string) (*Config, error) { return internalconfig.LoadConfig(configFile) }

func NewFileStore(path string) *FileStore { return internalsecrets.NewFileStore(path) }

func NewChannelSink(size int) *ChannelSink { return internalsession.NewChannelSink(size) }

// ExtractLoginCode pulls the authorization code out of a redirect payload.
// Exposed for hosts that receive the custom-scheme redirect themselves.
func ExtractLoginCode(payload string) string { return internalcomm.ExtractLoginCode(payload) }
