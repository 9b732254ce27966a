package transformers

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"

	"go.uber.org/zap"
)

// maskRewrite keeps the bits selected by mask and takes the rest from
// overwrite. Typical use: publish a stable suffix under a delegated,
// changing IPv6 prefix.
type maskRewrite struct {
	mask      net.IPMask
	overwrite net.IP
}

func (t *maskRewrite) Transform(ctx context.Context, ip net.IP) (result net.IP, err error) {
	ctx = log.SWith(ctx, "overwrite", t.overwrite, "mask", t.mask)

	if len(ip) != len(t.overwrite) {
		log.S(ctx).Warnw("mismatched IP family", log.IP(ip))
		return nil, fmt.Errorf(`mismatched IP family`)
	}

	result = make(net.IP, len(ip))

	for i := 0; i < len(ip); i++ {
		result[i] = (ip[i] & t.mask[i]) | (t.overwrite[i] & ^t.mask[i])
	}

	log.S(ctx).Debugw("transformed ip", log.IP(result))

	return
}

func newMaskRewrite(ctx context.Context, conf config.TransformerConfig) (Interface, error) {
	ctx = log.SWith(ctx, "type", "mask_rewrite")

	var c config.MaskRewriteConfig
	if err := common.WeakDecodeMap(conf.Config, &c); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Config)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	t := &maskRewrite{overwrite: c.Overwrite.IP}

	if cidr, err := strconv.ParseUint(c.Mask, 10, 8); err == nil {
		bits := len(t.overwrite) * 8
		if cidr > uint64(bits) {
			log.S(ctx).Errorw("bad config: CIDR out of range", "overwrite", t.overwrite, "cidr", cidr)
			return nil, fmt.Errorf("bad config: CIDR out of range")
		}
		t.mask = net.CIDRMask(int(cidr), bits)
	} else {
		mask, err := netip.ParseAddr(c.Mask)
		if err != nil {
			log.S(ctx).Errorw("bad config: bad mask", zap.Error(err), "mask", c.Mask)
			return nil, fmt.Errorf(`bad config: bad mask: %w`, err)
		}

		t.mask = mask.AsSlice()
		if len(t.mask) != len(t.overwrite) {
			log.S(ctx).Errorw("mask and overwrite have mismatched IP family", "mask", t.mask, "overwrite", t.overwrite)
			return nil, fmt.Errorf(`bad config: mismatched IP family`)
		}
	}

	return t, nil
}
