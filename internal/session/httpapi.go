package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// exchangeCode trades the pending authorization code + verifier for a token
// pair at the identity provider's token endpoint.
func (s *Session) exchangeCode(ctx context.Context) error {
	code, verifier := s.pendingCode, s.pendingVerifier
	s.pendingCode = ""
	s.pendingVerifier = ""

	body := ""
	body, _ = sjson.Set(body, "grant_type", "authorization_code")
	body, _ = sjson.Set(body, "code", code)
	body, _ = sjson.Set(body, "code_verifier", verifier)
	body, _ = sjson.Set(body, "client_id", s.clientID)
	body, _ = sjson.Set(body, "redirect_uri", s.redirectURI)

	respBody, err := s.postToken(ctx, body)
	if err != nil {
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: "code exchange failed"})
		return fmt.Errorf("code exchange failed: %w", err)
	}
	s.applyTokenResponse(respBody)
	s.sink.Emit(Event{Kind: EventLoginSucceeded, Payload: gjson.GetBytes(respBody, "username").String()})
	return nil
}

// refreshTokens performs a refresh-grant exchange with the stored refresh
// token.
func (s *Session) refreshTokens(ctx context.Context) error {
	if !s.rec.HasRefresh() {
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: "no refresh token"})
		return fmt.Errorf("refresh requested without refresh token")
	}

	body := ""
	body, _ = sjson.Set(body, "grant_type", "refresh_token")
	body, _ = sjson.Set(body, "refresh_token", s.rec.RefreshToken)
	body, _ = sjson.Set(body, "client_id", s.clientID)

	respBody, err := s.postToken(ctx, body)
	if err != nil {
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: "token refresh failed"})
		return fmt.Errorf("token refresh failed: %w", err)
	}
	s.applyTokenResponse(respBody)
	return nil
}

// testWithRefresh validates the access token against the identity provider,
// refreshing first when the token is stale or missing.
func (s *Session) testWithRefresh(ctx context.Context) error {
	if s.rec.AccessToken == "" || s.rec.RemainingSeconds(time.Now()) <= 0 {
		if err := s.refreshTokens(ctx); err != nil {
			return err
		}
	}

	respBody, status, err := s.get(ctx, s.authHost+"/api/v1/me/", s.rec.AccessToken)
	if err == nil && status == http.StatusUnauthorized {
		// Stale token the server no longer accepts; one refresh retry.
		if err = s.refreshTokens(ctx); err != nil {
			return err
		}
		respBody, status, err = s.get(ctx, s.authHost+"/api/v1/me/", s.rec.AccessToken)
	}
	if err != nil {
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: "token test failed"})
		return fmt.Errorf("token test failed: %w", err)
	}
	if status != http.StatusOK {
		s.sink.Emit(Event{Kind: EventLoginFailed, Payload: fmt.Sprintf("token test status %d", status)})
		return fmt.Errorf("token test returned status %d", status)
	}
	s.sink.Emit(Event{Kind: EventLoginSucceeded, Payload: gjson.GetBytes(respBody, "public_username").String()})
	return nil
}

// fetchConnect performs a bearer-authorized GET against the cloud service
// and emits the response document.
func (s *Session) fetchConnect(ctx context.Context, path string, kind EventKind, payload string) error {
	respBody, status, err := s.get(ctx, s.connectHost+path, s.rec.AccessToken)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, status)
	}
	s.sink.Emit(Event{Kind: kind, Payload: payload, Data: respBody})
	return nil
}

// fetchAvatar downloads the avatar image from an absolute URL. Avatar hosts
// serve public content, so no bearer token is attached.
func (s *Session) fetchAvatar(ctx context.Context, url string) error {
	respBody, status, err := s.get(ctx, url, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("avatar fetch returned status %d", status)
	}
	s.sink.Emit(Event{Kind: EventAvatarReady, Payload: url, Data: respBody})
	return nil
}

// postToken POSTs a JSON body to the token endpoint and returns the response
// body on 200.
func (s *Session) postToken(ctx context.Context, body string) ([]byte, error) {
	endpoint := s.authHost + "/o/token/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("create token request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// applyTokenResponse updates the record from a token endpoint response. The
// shared session key is taken from the server when present and generated
// locally otherwise.
func (s *Session) applyTokenResponse(respBody []byte) {
	s.rec.AccessToken = gjson.GetBytes(respBody, "access_token").String()
	if refresh := gjson.GetBytes(respBody, "refresh_token").String(); refresh != "" {
		s.rec.RefreshToken = refresh
	}
	expiresIn := gjson.GetBytes(respBody, "expires_in").Int()
	s.rec.ExpiresAt = time.Now().Unix() + expiresIn

	if key := gjson.GetBytes(respBody, "shared_session_key").String(); key != "" {
		s.rec.SharedSessionKey = key
	} else if s.rec.SharedSessionKey == "" {
		s.rec.SharedSessionKey = uuid.NewString()
		log.Debugf("session: generated local shared session key %s", s.rec.SharedSessionKey)
	}

	s.notifyTokenChange()
}

// get performs a GET with an optional bearer token and returns body and
// status.
func (s *Session) get(ctx context.Context, url, bearer string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request failed: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response failed: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
