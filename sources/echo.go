package sources

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"

	"go.uber.org/zap"
)

const maxReadEcho = 4 * 1024

const defaultEchoTimeout = 5 * time.Second

// Separate endpoints per family: on a dual-stack host a single endpoint
// would answer over whichever family the OS prefers, masking the other.
var defaultEchoURL = map[common.Family]string{
	common.IPv4: "https://api4.ipify.org",
	common.IPv6: "https://api6.ipify.org",
}

// echo queries a public IP-echo service that replies with the caller's
// address as the plain-text response body.
type echo struct {
	config.EchoSourceConfig `mapstructure:",squash"`

	family common.Family
	url    string
}

func (s *echo) Typename() string {
	return "echo"
}

func (s *echo) wrapDialer(upstream transportDialer) transportDialer {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return upstream(ctx, s.family.Network(network), addr)
	}
}

func (s *echo) Lookup(ctx context.Context) (result net.IP, err error) {
	timeout := time.Duration(s.Timeout)

	client, err := wrapClientDialer(ctx, clientFromContext(ctx), s.wrapDialer)
	if err != nil {
		return nil, err
	}

	ctx = log.SWith(ctx, "url", s.url, "family", s.family, "timeout", timeout)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	tCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = tCtx

	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		log.S(ctx).Errorw("new request failed", zap.Error(err))
		return nil, fmt.Errorf("new request failed: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.S(ctx).Warnw("connection failed", zap.Error(err))
		return nil, fmt.Errorf(`connection failed: %w`, err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		log.S(ctx).Warnw("unexpected status", "status", resp.Status)
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadEcho))
	if err != nil {
		log.S(ctx).Warnw("receiving response failed", zap.Error(err))
		return nil, fmt.Errorf(`failed receiving response: %w`, err)
	}

	return checkFamily(ctx, strings.TrimSpace(string(data)), s.family)
}

// checkFamily parses an address literal and rejects results of the wrong
// family even when the transport was pinned correctly.
func checkFamily(ctx context.Context, ipString string, family common.Family) (net.IP, error) {
	nip, err := netip.ParseAddr(ipString)
	if err != nil {
		log.S(ctx).Warnw("response is not an IP literal", "body", ipString, zap.Error(err))
		return nil, fmt.Errorf("response is not an IP literal: %w", err)
	}

	switch {
	case nip.Zone() != "":
		log.S(ctx).Warnw("found zone in IP", "ip", ipString, "zone", nip.Zone())
		return nil, fmt.Errorf(`unsupported: found zone in IP`)

	case (nip.Is4() || nip.Is4In6()) && family == common.IPv4:
		ip := nip.As4()
		return ip[:], nil

	case nip.Is6() && family == common.IPv6:
		ip := nip.As16()
		return ip[:], nil

	default:
		log.S(ctx).Warnw("mismatched IP family", "ip", ipString, "family", family)
		return nil, fmt.Errorf(`mismatched IP family`)
	}
}

func newEcho(ctx context.Context, family common.Family, conf config.SourceConfig) (Interface, error) {
	ctx = log.SWith(ctx, "type", "echo")

	s := &echo{family: family, url: conf.Source}
	if err := common.WeakDecodeMap(conf.Config, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Config)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	if s.url == "" {
		s.url = defaultEchoURL[family]
	}

	if s.Timeout == 0 {
		s.Timeout = common.Duration(defaultEchoTimeout)
	}

	return s, nil
}
