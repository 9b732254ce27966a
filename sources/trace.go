package sources

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"

	"go.uber.org/zap"
)

const maxReadTrace = 1024
const defaultTraceHost = "www.cloudflare.com"

// trace extracts the caller's address from the ip= line of a
// /cdn-cgi/trace response. Any Cloudflare-fronted host works.
type trace struct {
	config.TraceSourceConfig `mapstructure:",squash"`

	family common.Family
	host   string
}

func (s *trace) Typename() string {
	return "trace"
}

func (s *trace) wrapDialer(upstream transportDialer) transportDialer {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return upstream(ctx, s.family.Network(network), addr)
	}
}

func (s *trace) Lookup(ctx context.Context) (result net.IP, err error) {
	timeout := time.Duration(s.Timeout)

	client, err := wrapClientDialer(ctx, clientFromContext(ctx), s.wrapDialer)
	if err != nil {
		return nil, err
	}

	ctx = log.SWith(ctx, "host", s.host, "family", s.family, "timeout", timeout)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	tCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = tCtx

	url := fmt.Sprintf("https://%s/cdn-cgi/trace", s.host)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
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

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadTrace))
	if err != nil {
		log.S(ctx).Warnw("receiving response failed", zap.Error(err))
		return nil, fmt.Errorf(`failed receiving response: %w`, err)
	}

	ipString := ""
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "ip=") {
			ipString = strings.TrimPrefix(line, "ip=")
			break
		}
	}

	if ipString == "" {
		log.S(ctx).Warnw("no IP found in response", log.ByteField("body", data))
		return nil, fmt.Errorf("no IP found in response")
	}

	return checkFamily(ctx, strings.TrimSpace(ipString), s.family)
}

func newTrace(ctx context.Context, family common.Family, conf config.SourceConfig) (Interface, error) {
	ctx = log.SWith(ctx, "type", "trace")

	s := &trace{family: family, host: conf.Source}
	if err := common.WeakDecodeMap(conf.Config, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Config)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	if s.host == "" {
		s.host = defaultTraceHost
	}

	if s.Timeout == 0 {
		s.Timeout = common.Duration(defaultEchoTimeout)
	}

	return s, nil
}
