package flaredns

import (
	"context"
	"errors"
	"fmt"
	"net"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"
	"flaredns/sources"
	"flaredns/transformers"

	"go.uber.org/zap"
)

// AddressResolver produces the current public address of one family.
type AddressResolver interface {
	Resolve(ctx context.Context, family common.Family) (net.IP, error)
}

type sourceChain struct {
	sources      []sources.Interface
	transformers []transformers.Interface
}

// resolve tries sources in order; the first one whose result survives all
// transformers wins.
func (c *sourceChain) resolve(ctx context.Context) (net.IP, string, error) {
	var errs []error

Next:
	for _, source := range c.sources {
		ip, err := source.Lookup(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, transformer := range c.transformers {
			ip, err = transformer.Transform(ctx, ip)
			if err != nil {
				errs = append(errs, err)
				continue Next
			}
		}

		return ip, source.Typename(), nil
	}

	return nil, "", errors.Join(errs...)
}

type Resolver struct {
	chains map[common.Family]*sourceChain
}

func (r *Resolver) Resolve(ctx context.Context, family common.Family) (net.IP, error) {
	chain, ok := r.chains[family]
	if !ok {
		return nil, &sources.ResolutionError{Family: family, Err: errors.New("no source configured")}
	}

	ip, sourceType, err := chain.resolve(ctx)
	if err != nil {
		return nil, &sources.ResolutionError{Family: family, Err: err}
	}

	log.S(ctx).Infow("resolved address", log.IP(ip), "source_type", sourceType)
	return ip, nil
}

func buildChain(ctx context.Context, family common.Family, addr config.AddressConfig) (*sourceChain, error) {
	chain := &sourceChain{}

	for _, s := range addr.Sources {
		ctx := log.SWith(ctx, log.Stage("init:source"), "family", family, "type", s.Type)
		create, ok := sources.Sources[s.Type]
		if !ok {
			log.S(ctx).Errorw("unknown source type")
			return nil, fmt.Errorf("unknown source type: %s", s.Type)
		}

		source, err := create(ctx, family, s)
		if err != nil {
			return nil, fmt.Errorf("failed creating source: %w", err)
		}
		chain.sources = append(chain.sources, source)
	}

	for _, t := range addr.Transformers {
		ctx := log.SWith(ctx, log.Stage("init:transformer"), "family", family, "type", t.Type)
		create, ok := transformers.Transformers[t.Type]
		if !ok {
			log.S(ctx).Errorw("unknown transformer type")
			return nil, fmt.Errorf("unknown transformer type: %s", t.Type)
		}

		transformer, err := create(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed creating transformer: %w", err)
		}
		chain.transformers = append(chain.transformers, transformer)
	}

	return chain, nil
}

// NewResolver builds one source chain per requested family. Families
// without an address entry get the default IP-echo source.
func NewResolver(ctx context.Context, families []common.Family, addrs []config.AddressConfig) (*Resolver, error) {
	configured := map[common.Family]config.AddressConfig{}
	for _, addr := range addrs {
		var family common.Family
		if err := family.UnmarshalText([]byte(addr.Family)); err != nil {
			log.S(ctx).Errorw("bad family in address entry", "family", addr.Family, zap.Error(err))
			return nil, fmt.Errorf("bad family in address entry: %w", err)
		}
		configured[family] = addr
	}

	r := &Resolver{chains: map[common.Family]*sourceChain{}}

	for _, family := range families {
		addr, ok := configured[family]
		if !ok || len(addr.Sources) == 0 {
			addr.Sources = []config.SourceConfig{{Type: "echo"}}
		}

		chain, err := buildChain(ctx, family, addr)
		if err != nil {
			return nil, err
		}

		r.chains[family] = chain
	}

	return r, nil
}
