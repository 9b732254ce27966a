package transformers

import (
	"context"
	"net"

	"flaredns/config"
)

// Interface rewrites a resolved address before it is compared against and
// published to DNS.
type Interface interface {
	Transform(ctx context.Context, ip net.IP) (net.IP, error)
}

var Transformers = map[string]func(ctx context.Context, transformer config.TransformerConfig) (Interface, error){
	"mask_rewrite": newMaskRewrite,
}
