package flaredns

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"flaredns/common"
	"flaredns/config"
	"flaredns/sources"
)

func TestResolverDefaultsToEcho(t *testing.T) {
	r, err := NewResolver(context.Background(), []common.Family{common.IPv4, common.IPv6}, nil)
	if err != nil {
		t.Fatalf("NewResolver failed: %s", err)
	}

	for _, family := range []common.Family{common.IPv4, common.IPv6} {
		chain, ok := r.chains[family]
		if !ok || len(chain.sources) != 1 {
			t.Fatalf("Expected one default source for %s", family)
		}
		if expected, got := "echo", chain.sources[0].Typename(); expected != got {
			t.Fatalf("Expected default source %q for %s; got %q", expected, family, got)
		}
	}
}

func TestResolverSourceFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.8")
	}))
	defer good.Close()

	addrs := []config.AddressConfig{{
		Family: "ipv4",
		Sources: []config.SourceConfig{
			{Type: "echo", Source: bad.URL},
			{Type: "echo", Source: good.URL},
		},
	}}

	r, err := NewResolver(context.Background(), []common.Family{common.IPv4}, addrs)
	if err != nil {
		t.Fatalf("NewResolver failed: %s", err)
	}

	ip, err := r.Resolve(context.Background(), common.IPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected, got := "192.0.2.8", ip.String(); expected != got {
		t.Fatalf("Expected %q from the fallback source; got %q", expected, got)
	}
}

func TestResolverAllSourcesFailed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	addrs := []config.AddressConfig{{
		Family:  "ipv4",
		Sources: []config.SourceConfig{{Type: "echo", Source: bad.URL}},
	}}

	r, err := NewResolver(context.Background(), []common.Family{common.IPv4}, addrs)
	if err != nil {
		t.Fatalf("NewResolver failed: %s", err)
	}

	_, err = r.Resolve(context.Background(), common.IPv4)

	var resolutionErr *sources.ResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("Expected a ResolutionError; got %v", err)
	}
	if resolutionErr.Family != common.IPv4 {
		t.Fatalf("Expected the v4 family in the error; got %s", resolutionErr.Family)
	}
}

func TestResolverTransformerApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.77")
	}))
	defer srv.Close()

	addrs := []config.AddressConfig{{
		Family:  "v4",
		Sources: []config.SourceConfig{{Type: "echo", Source: srv.URL}},
		Transformers: []config.TransformerConfig{{
			Type:   "mask_rewrite",
			Config: map[string]any{"mask": "255.255.255.0", "overwrite": "0.0.0.9"},
		}},
	}}

	r, err := NewResolver(context.Background(), []common.Family{common.IPv4}, addrs)
	if err != nil {
		t.Fatalf("NewResolver failed: %s", err)
	}

	ip, err := r.Resolve(context.Background(), common.IPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected, got := "192.0.2.9", ip.String(); expected != got {
		t.Fatalf("Expected transformed address %q; got %q", expected, got)
	}
}

func TestResolverRejectsUnknownSource(t *testing.T) {
	addrs := []config.AddressConfig{{
		Family:  "ipv4",
		Sources: []config.SourceConfig{{Type: "carrier-pigeon"}},
	}}

	if _, err := NewResolver(context.Background(), []common.Family{common.IPv4}, addrs); err == nil {
		t.Fatal("Expected an error for an unknown source type; got err == nil")
	}
}
