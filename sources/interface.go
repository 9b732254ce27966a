package sources

import (
	"context"
	"fmt"
	"net"
	"slices"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"

	"go.uber.org/zap"
)

// networkInterface publishes an address assigned to a local interface.
// Useful when the host holds a global address directly (no NAT).
type networkInterface struct {
	config.InterfaceSourceConfig `mapstructure:",squash"`

	family common.Family
	iface  string
}

func (s *networkInterface) Typename() string {
	return "interface"
}

func (s *networkInterface) Lookup(ctx context.Context) (result net.IP, err error) {
	ctx = log.SWith(ctx, "interface", s.iface, "family", s.family, "select", s.Select)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	iface, err := net.InterfaceByName(s.iface)
	if err != nil {
		log.S(ctx).Warnw("find interface failed", zap.Error(err))
		return nil, fmt.Errorf(`find interface failed: %w`, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		log.S(ctx).Warnw("get address failed", zap.Error(err))
		return nil, fmt.Errorf(`get address failed: %w`, err)
	}

	var candidate []net.IP

	for _, addr := range addrs {
		var ip net.IP

		switch addr := addr.(type) {
		case *net.IPAddr:
			ip = addr.IP
		case *net.IPNet:
			ip = addr.IP
		default:
			continue
		}

		ctx := log.SWith(ctx, log.IP(ip))

		if (s.family == common.IPv4) != (ip.To4() != nil) {
			log.S(ctx).Debugw("discard IP", "reason", "family mismatch")
			continue
		}

		if !ip.IsGlobalUnicast() {
			log.S(ctx).Debugw("discard IP", "reason", "not a global unicast IP")
			continue
		}

		if ip.IsPrivate() {
			log.S(ctx).Debugw("discard IP", "reason", "private IP")
			continue
		}

		log.S(ctx).Debugw("add IP to candidate")
		candidate = append(candidate, ip)
	}

	if len(candidate) == 0 {
		log.S(ctx).Warnw("no eligible IP found")
		return nil, fmt.Errorf(`no eligible IP found`)
	}

	switch s.Select {
	case common.SelectShortest:
		slices.SortStableFunc(candidate, func(i, j net.IP) int {
			return len(i.String()) - len(j.String())
		})
		fallthrough
	case common.SelectFirst:
		return candidate[0], nil
	case common.SelectLast:
		return candidate[len(candidate)-1], nil
	default:
		log.S(ctx).Errorw("unexpected select mode")
		return nil, fmt.Errorf(`internal error: unexpected select mode`)
	}
}

func newInterface(ctx context.Context, family common.Family, conf config.SourceConfig) (Interface, error) {
	ctx = log.SWith(ctx, "type", "interface")

	if conf.Source == "" {
		log.S(ctx).Errorw("interface source needs an interface name")
		return nil, fmt.Errorf("interface source needs an interface name")
	}

	s := &networkInterface{family: family, iface: conf.Source}
	if err := common.WeakDecodeMap(conf.Config, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Config)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	return s, nil
}
