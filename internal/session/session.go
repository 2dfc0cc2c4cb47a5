// Package session owns the account action queue and the network exchanges
// against the identity provider and the cloud print service. A Session is an
// opaque unit: the communication orchestrator guards every call with its
// session lock, so the Session itself performs no locking of queue or token
// state.
package session

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/printforge/accountlink/internal/token"
)

// TokenListener is notified after every successful token exchange or
// refresh with a snapshot of the new record. The orchestrator uses it to
// persist credentials and to re-arm the proactive refresh timer. It is
// invoked while the session lock is held and must not call back into
// session-locked operations.
type TokenListener func(rec token.Record)

// Options configures a Session.
type Options struct {
	// AuthHost is the identity provider base URL.
	AuthHost string
	// ConnectHost is the cloud print service base URL.
	ConnectHost string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// RedirectURI is the registered redirect URI.
	RedirectURI string
	// Record is the initial token state, typically restored from the secure
	// store.
	Record token.Record
	// Polling enables the recurring cloud polling action.
	Polling bool
	// Sink receives emitted events. Nil discards them.
	Sink EventSink
	// HTTPClient overrides the transport, mainly for tests. Nil gets a
	// 30-second-timeout default.
	HTTPClient *http.Client
	// OnTokenChange is the TokenListener, may be nil.
	OnTokenChange TokenListener
}

// Session holds the account token state and the pending action queue.
type Session struct {
	authHost    string
	connectHost string
	clientID    string
	redirectURI string

	httpClient *http.Client
	sink       EventSink
	onToken    TokenListener

	rec   token.Record
	queue []Action

	pollingAction ActionID

	pendingCode     string
	pendingVerifier string
}

// New creates a Session from opts.
func New(opts Options) *Session {
	s := &Session{
		authHost:    opts.AuthHost,
		connectHost: opts.ConnectHost,
		clientID:    opts.ClientID,
		redirectURI: opts.RedirectURI,
		httpClient:  opts.HTTPClient,
		sink:        opts.Sink,
		onToken:     opts.OnTokenChange,
		rec:         opts.Record,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.sink == nil {
		s.sink = discardSink{}
	}
	if opts.Polling {
		s.pollingAction = ActionConnectPrinterModels
	}
	return s
}

// IsInitialized reports whether the session carries any token material. A
// refresh token alone counts: it is enough to run a silent login.
func (s *Session) IsInitialized() bool {
	return !s.rec.Empty()
}

// TokenRecord returns a snapshot of the current token state.
func (s *Session) TokenRecord() token.Record {
	return s.rec
}

// AccessToken returns the current bearer credential, possibly empty.
func (s *Session) AccessToken() string {
	return s.rec.AccessToken
}

// SharedSessionKey returns the opaque correlation key for this session.
func (s *Session) SharedSessionKey() string {
	return s.rec.SharedSessionKey
}

// NextTokenTimeout returns the access-token expiry as epoch seconds.
func (s *Session) NextTokenTimeout() int64 {
	return s.rec.ExpiresAt
}

// SetPollingAction selects the action appended to every processing pass.
// ActionDummy disables polling.
func (s *Session) SetPollingAction(id ActionID) {
	s.pollingAction = id
}

// InitWithCode primes a code-exchange with the received authorization code
// and the verifier of the current login attempt. An empty code is rejected
// here: it yields a login-failed event instead of ever reaching the token
// endpoint.
func (s *Session) InitWithCode(code, verifier string) {
	if code == "" {
		log.Error("session: empty authorization code, rejecting login")
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: "empty authorization code"})
		return
	}
	s.pendingCode = code
	s.pendingVerifier = verifier
	s.queue = append(s.queue, Action{ID: ActionCodeExchange})
}

// Clear blanks all token state and drops pending actions.
func (s *Session) Clear() {
	s.rec.Clear()
	s.queue = nil
	s.pendingCode = ""
	s.pendingVerifier = ""
}

// EnqueueAction appends an action with an optional payload.
func (s *Session) EnqueueAction(id ActionID, payload string) {
	s.queue = append(s.queue, Action{ID: id, Payload: payload})
}

// EnqueueTestWithRefresh appends a token validation pass.
func (s *Session) EnqueueTestWithRefresh() {
	s.queue = append(s.queue, Action{ID: ActionTestWithRefresh})
}

// EnqueueRefresh appends a refresh-grant exchange.
func (s *Session) EnqueueRefresh() {
	s.queue = append(s.queue, Action{ID: ActionRefresh})
}

// QueueLen returns the number of pending actions.
func (s *Session) QueueLen() int {
	return len(s.queue)
}

// ProcessActionQueue drains the entire pending queue, then runs the polling
// action when one is set. Failures are logged and reported as events; they
// never propagate as panics, so the worker goroutine survives every pass.
func (s *Session) ProcessActionQueue(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("session: panic recovered in queue processing: %v", r)
		}
	}()

	for len(s.queue) > 0 {
		action := s.queue[0]
		s.queue = s.queue[1:]
		s.execute(ctx, action)
	}

	if s.pollingAction != ActionDummy && s.IsInitialized() {
		s.execute(ctx, Action{ID: s.pollingAction})
	}
}

func (s *Session) execute(ctx context.Context, action Action) {
	if err := ctx.Err(); err != nil {
		log.Debugf("session: skipping %s, context done: %v", action.ID, err)
		return
	}
	log.Debugf("session: executing action %s", action.ID)

	var err error
	switch action.ID {
	case ActionDummy:
		return
	case ActionCodeExchange:
		err = s.exchangeCode(ctx)
	case ActionTestWithRefresh:
		err = s.testWithRefresh(ctx)
	case ActionRefresh:
		err = s.refreshTokens(ctx)
	case ActionConnectPrinterModels:
		err = s.fetchConnect(ctx, "/app/printer_models", EventConnectPrinterModels, "")
	case ActionConnectStatus:
		err = s.fetchConnect(ctx, "/app/status", EventConnectStatus, "")
	case ActionPrinterDataFromUUID:
		err = s.fetchConnect(ctx, "/app/printers/"+action.Payload, EventPrinterData, action.Payload)
	case ActionAvatar:
		err = s.fetchAvatar(ctx, action.Payload)
	default:
		log.Errorf("session: unknown action %d", action.ID)
		return
	}
	if err != nil {
		log.Errorf("session: action %s failed: %v", action.ID, err)
		s.sink.Emit(Event{Kind: EventActionFailed, Payload: action.ID.String()})
	}
}

// notifyTokenChange hands a snapshot of the new record to the listener.
func (s *Session) notifyTokenChange() {
	if s.onToken != nil {
		s.onToken(s.rec)
	}
}
