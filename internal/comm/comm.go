// Package comm implements the account communication orchestrator: the
// public login/logout/enqueue surface, the background session worker, the
// proactive token-refresh timer, and the window-activity gated poll timer.
//
// Two locks coordinate everything. The control lock guards the worker flags
// {stop, wakeup, windowActive}; the session lock guards all session/token
// state and the action queue. Control-lock critical sections are short and
// never call into session-locked code, and session-locked sections never
// wait on the control condition, so the two can never deadlock.
package comm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/printforge/accountlink/internal/config"
	"github.com/printforge/accountlink/internal/pkce"
	"github.com/printforge/accountlink/internal/secretstore"
	"github.com/printforge/accountlink/internal/session"
	"github.com/printforge/accountlink/internal/token"
)

// Options configures a Communication instance.
type Options struct {
	// Config provides endpoints, client id and polling behavior.
	Config *config.Config
	// Store persists credentials. Nil or unusable stores degrade to
	// non-persisting operation.
	Store secretstore.Store
	// Sink receives UI-bound events. Nil discards them.
	Sink session.EventSink
	// HTTPClient overrides the session transport, mainly for tests.
	HTTPClient *http.Client
	// PollInterval overrides the poll timer interval. Zero uses the
	// configured polling-seconds value.
	PollInterval time.Duration
}

// Communication is the façade coordinating login/logout, enqueue operations,
// timer callbacks and window-activity gating over a single background
// session worker.
type Communication struct {
	cfg   *config.Config
	store secretstore.Store
	sink  session.EventSink

	// sessionMu guards sess and every read/write of session/token state.
	sessionMu sync.Mutex
	sess      *session.Session

	// ctrlMu + ctrlCond guard the worker control flags below.
	ctrlMu       sync.Mutex
	ctrlCond     *sync.Cond
	stopFlag     bool
	wakeupFlag   bool
	windowActive bool

	// stateMu guards foreground-owned prefs and the in-flight PKCE verifier.
	stateMu      sync.Mutex
	username     string
	remember     bool
	codeVerifier string

	gen pkce.Generator

	ctx    context.Context
	cancel context.CancelFunc

	done      chan struct{}
	closeOnce sync.Once

	refreshMu    sync.Mutex
	refreshTimer *time.Timer

	pollInterval time.Duration
}

// New restores persisted credentials, builds the session, starts the worker
// goroutine and the poll timer, and runs an initial silent login when a
// refresh token survived the restart.
func New(opts Options) (*Communication, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("comm: config is required")
	}
	sink := opts.Sink
	if sink == nil {
		sink = session.NewChannelSink(0)
	}

	rec := secretstore.LoadTokenRecord(opts.Store)
	remaining := rec.RemainingSeconds(time.Now())
	if remaining <= 0 {
		// Stale bearer credential; the refresh token still carries login
		// capability.
		rec.AccessToken = ""
	}
	hasToken := rec.HasRefresh()

	c := &Communication{
		cfg:          opts.Config,
		store:        opts.Store,
		sink:         sink,
		remember:     opts.Config.RememberSession,
		done:         make(chan struct{}),
		pollInterval: opts.PollInterval,
	}
	c.ctrlCond = sync.NewCond(&c.ctrlMu)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	if c.pollInterval <= 0 {
		c.pollInterval = time.Duration(opts.Config.PollingSeconds) * time.Second
	}

	c.sess = session.New(session.Options{
		AuthHost:      opts.Config.AuthHost,
		ConnectHost:   opts.Config.ConnectHost,
		ClientID:      opts.Config.ClientID,
		RedirectURI:   opts.Config.RedirectURI(),
		Record:        rec,
		Polling:       opts.Config.ConnectPolling,
		Sink:          sink,
		HTTPClient:    opts.HTTPClient,
		OnTokenChange: c.onTokenChange,
	})

	if remaining > 0 {
		c.scheduleRefresh(remaining)
	}

	go c.worker()
	go c.pollLoop()

	if hasToken {
		c.Login()
	}
	return c, nil
}

// Close stops the timers, signals the worker to stop and waits for it to
// exit. It returns only after the worker goroutine has fully terminated.
// Actions enqueued concurrently with Close may be silently dropped; the
// queue is best-effort, not guaranteed-delivery.
func (c *Communication) Close() {
	c.closeOnce.Do(func() {
		c.cancelRefreshTimer()
		c.cancel()
		c.ctrlMu.Lock()
		c.stopFlag = true
		c.ctrlMu.Unlock()
		c.ctrlCond.Broadcast()
		<-c.done
	})
}

// Login starts the interactive authorization flow when the session has no
// refresh capability, and a silent token validation otherwise.
func (c *Communication) Login() {
	c.sessionMu.Lock()
	if !c.sess.IsInitialized() {
		c.loginRedirect()
	} else {
		c.sess.EnqueueTestWithRefresh()
	}
	c.sessionMu.Unlock()
	c.WakeupSessionWorker()
}

// loginRedirect generates fresh PKCE material and emits the authorization
// URL for external handling. Caller holds the session lock.
func (c *Communication) loginRedirect() {
	codes := c.gen.GenerateCodes()
	if codes.Challenge == "" {
		log.Error("comm: empty PKCE challenge, aborting login redirect")
		c.sink.Emit(session.Event{Kind: session.EventLoginFailed, Payload: "challenge generation failed"})
		return
	}
	c.stateMu.Lock()
	c.codeVerifier = codes.Verifier
	c.stateMu.Unlock()

	authURL := fmt.Sprintf(
		"%s/o/authorize/?client_id=%s&response_type=code&code_challenge=%s&code_challenge_method=S256&scope=%s&redirect_uri=%s&choose_account=1",
		c.cfg.AuthHost,
		url.QueryEscape(c.cfg.ClientID),
		codes.Challenge,
		url.QueryEscape(c.cfg.Scope),
		url.QueryEscape(c.cfg.RedirectURI()),
	)
	log.Debugf("comm: code challenge %s", codes.Challenge)
	c.sink.Emit(session.Event{Kind: session.EventOpenAuthURL, Payload: authURL})
}

// ReceiveLoginCode extracts the authorization code from the redirect payload
// and hands it with the stored verifier to the session for exchange. A
// malformed payload yields an empty code, which the session rejects with a
// login-failed event.
func (c *Communication) ReceiveLoginCode(payload string) {
	code := ExtractLoginCode(payload)
	c.stateMu.Lock()
	verifier := c.codeVerifier
	c.stateMu.Unlock()

	c.sessionMu.Lock()
	c.sess.InitWithCode(code, verifier)
	c.sessionMu.Unlock()
	c.WakeupSessionWorker()
}

// Logout clears session state, blanks the persisted credentials, cancels
// the pending refresh and notifies the UI.
func (c *Communication) Logout() {
	c.clear()
	c.sink.Emit(session.Event{Kind: session.EventLoggedOut})
}

func (c *Communication) clear() {
	c.sessionMu.Lock()
	c.sess.Clear()
	c.sessionMu.Unlock()
	c.SetUsername("")
	c.cancelRefreshTimer()
}

// SetUsername records the account username and re-persists (or forgets) the
// token record according to the remember-session preference.
func (c *Communication) SetUsername(username string) {
	c.stateMu.Lock()
	c.username = username
	remember := c.remember
	c.stateMu.Unlock()

	c.sessionMu.Lock()
	rec := c.sess.TokenRecord()
	c.sessionMu.Unlock()
	secretstore.SaveTokenRecord(c.store, rec, remember)
}

// SetRememberSession toggles credential persistence. Tokens are stored or
// deleted immediately; the in-memory session is untouched.
func (c *Communication) SetRememberSession(remember bool) {
	c.stateMu.Lock()
	c.remember = remember
	username := c.username
	c.stateMu.Unlock()
	c.SetUsername(username)
}

// Username returns the recorded account username.
func (c *Communication) Username() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.username
}

// IsLoggedIn reports whether an account username has been recorded.
func (c *Communication) IsLoggedIn() bool {
	return c.Username() != ""
}

// AccessToken returns the session's current bearer credential.
func (c *Communication) AccessToken() string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.sess.AccessToken()
}

// SharedSessionKey returns the session's correlation key.
func (c *Communication) SharedSessionKey() string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.sess.SharedSessionKey()
}

// SetPollingEnabled switches the recurring cloud polling action on or off.
func (c *Communication) SetPollingEnabled(enabled bool) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if enabled {
		c.sess.SetPollingAction(session.ActionConnectPrinterModels)
		return
	}
	c.sess.SetPollingAction(session.ActionDummy)
}

// OnUUIDMapSuccess switches polling to the status document once the
// application has mapped its printers.
func (c *Communication) OnUUIDMapSuccess() {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.sess.SetPollingAction(session.ActionConnectStatus)
}

// OnWindowActivated records whether the application window is in focus. The
// worker skips poll-driven passes while it is not.
func (c *Communication) OnWindowActivated(active bool) {
	c.ctrlMu.Lock()
	c.windowActive = active
	c.ctrlMu.Unlock()
}

// EnqueueConnectPrinterModelsAction queues a printer-models fetch.
func (c *Communication) EnqueueConnectPrinterModelsAction() {
	c.enqueue(session.ActionConnectPrinterModels, "")
}

// EnqueueConnectStatusAction queues a cloud status fetch.
func (c *Communication) EnqueueConnectStatusAction() {
	c.enqueue(session.ActionConnectStatus, "")
}

// EnqueueTestConnection queues a token validation pass.
func (c *Communication) EnqueueTestConnection() {
	c.enqueue(session.ActionTestWithRefresh, "")
}

// EnqueueAvatarAction queues an avatar download by URL.
func (c *Communication) EnqueueAvatarAction(avatarURL string) {
	c.enqueue(session.ActionAvatar, avatarURL)
}

// EnqueuePrinterDataAction queues a printer-detail fetch by UUID. Invalid
// identifiers are rejected before they reach the queue.
func (c *Communication) EnqueuePrinterDataAction(printerUUID string) {
	if _, err := uuid.Parse(printerUUID); err != nil {
		log.Errorf("comm: rejecting printer data request, invalid uuid %q: %v", printerUUID, err)
		return
	}
	c.enqueue(session.ActionPrinterDataFromUUID, printerUUID)
}

// EnqueueRefresh queues a refresh-grant exchange. Also fired by the one-shot
// refresh timer.
func (c *Communication) EnqueueRefresh() {
	c.enqueue(session.ActionRefresh, "")
}

// enqueue appends an action when the session is initialized and wakes the
// worker. Unauthenticated calls are logged no-ops; errors never cross this
// surface.
func (c *Communication) enqueue(id session.ActionID, payload string) {
	c.sessionMu.Lock()
	if !c.sess.IsInitialized() {
		c.sessionMu.Unlock()
		log.Errorf("comm: %s failed - not logged in", id)
		return
	}
	switch id {
	case session.ActionTestWithRefresh:
		c.sess.EnqueueTestWithRefresh()
	case session.ActionRefresh:
		c.sess.EnqueueRefresh()
	default:
		c.sess.EnqueueAction(id, payload)
	}
	c.sessionMu.Unlock()
	c.WakeupSessionWorker()
}

// onTokenChange persists the fresh record and re-arms the refresh timer. It
// runs on the worker goroutine while the session lock is held, so it only
// touches the store and the refresh timer.
func (c *Communication) onTokenChange(rec token.Record) {
	c.stateMu.Lock()
	remember := c.remember
	c.stateMu.Unlock()
	secretstore.SaveTokenRecord(c.store, rec, remember)
	c.scheduleRefresh(rec.RemainingSeconds(time.Now()))
}
