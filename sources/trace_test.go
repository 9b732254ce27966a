package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flaredns/common"
	"flaredns/config"
)

func traceServer(t *testing.T, body string) (*httptest.Server, context.Context) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cdn-cgi/trace" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	ctx := context.WithValue(context.Background(), common.HTTPClientKey, srv.Client())
	return srv, ctx
}

func TestTraceLookup(t *testing.T) {
	srv, ctx := traceServer(t, "fl=4f123\nh=example.com\nip=192.0.2.7\nts=1700000000\n")

	host := strings.TrimPrefix(srv.URL, "https://")
	src, err := newTrace(ctx, common.IPv4, config.SourceConfig{Type: "trace", Source: host})
	if err != nil {
		t.Fatalf("newTrace failed: %s", err)
	}

	ip, err := src.Lookup(ctx)
	if err != nil {
		t.Fatalf("Lookup failed: %s", err)
	}
	if expected, got := "192.0.2.7", ip.String(); expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestTraceLookupNoIPLine(t *testing.T) {
	srv, ctx := traceServer(t, "fl=4f123\nh=example.com\nts=1700000000\n")

	host := strings.TrimPrefix(srv.URL, "https://")
	src, err := newTrace(ctx, common.IPv4, config.SourceConfig{Type: "trace", Source: host})
	if err != nil {
		t.Fatalf("newTrace failed: %s", err)
	}

	if _, err := src.Lookup(ctx); err == nil {
		t.Fatal("Expected an error when no ip= line is present; got err == nil")
	}
}

func TestTraceDefaultHost(t *testing.T) {
	src, err := newTrace(context.Background(), common.IPv4, config.SourceConfig{Type: "trace"})
	if err != nil {
		t.Fatalf("newTrace failed: %s", err)
	}

	if expected, got := defaultTraceHost, src.(*trace).host; expected != got {
		t.Fatalf("Expected default host %q; got %q", expected, got)
	}
}
