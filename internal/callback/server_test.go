package callback

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

func TestServerDeliversPayload(t *testing.T) {
	s := NewServer(freePort(t))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/login?state=xyz&code=AbC123", s.Port())
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	select {
	case payload := <-s.Payloads():
		if payload != "/login?state=xyz&code=AbC123" {
			t.Fatalf("payload = %q", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
	}
}

func TestServerRejectsDoubleStart(t *testing.T) {
	s := NewServer(freePort(t))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()
	if err := s.Start(); err == nil {
		t.Fatal("second Start must fail")
	}
}
