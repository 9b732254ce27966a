package flaredns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"flaredns/common"
	"flaredns/ddns"
	"flaredns/log"

	"go.uber.org/zap"
)

// Reconciler runs one resolve-compare-update pass per requested family.
// It holds no state across cycles: the provider's stored record is the only
// durable state, re-read every cycle.
type Reconciler struct {
	hostname string
	families []common.Family
	resolver AddressResolver
	provider ddns.Interface
}

func NewReconciler(hostname string, families []common.Family, resolver AddressResolver, provider ddns.Interface) *Reconciler {
	return &Reconciler{
		hostname: hostname,
		families: families,
		resolver: resolver,
		provider: provider,
	}
}

// Run executes one cycle. Families are processed independently; a failure
// in one never blocks the other. The returned error is non-nil only when
// every requested family failed, which run-once invocations turn into a
// non-zero exit.
func (r *Reconciler) Run(ctx context.Context) error {
	ctx = log.SWith(ctx, log.Stage("reconcile"), "hostname", r.hostname)
	elapsed := log.Elapsed("elapsed")

	failed := 0
	for _, family := range r.families {
		if err := r.reconcile(ctx, family); err != nil {
			failed++
		}
	}

	log.S(ctx).Debugw("cycle finished", elapsed, "families", len(r.families), "failed", failed)

	if len(r.families) > 0 && failed == len(r.families) {
		return fmt.Errorf("all requested families failed")
	}

	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, family common.Family) error {
	ctx = log.SWith(ctx, "family", family, "record_type", family.RecordType())

	ip, err := r.resolver.Resolve(ctx, family)
	if err != nil {
		log.S(ctx).Errorw("failed resolving current address, skip family", zap.Error(err))
		return err
	}

	record, err := r.provider.FindRecord(ctx, r.hostname, family.RecordType())
	if err != nil {
		var notFound *ddns.NotFoundError
		if errors.As(err, &notFound) {
			log.S(ctx).Errorw("record missing, skip family", zap.Error(err))
		} else {
			log.S(ctx).Errorw("failed reading record, skip family", zap.Error(err))
		}
		return err
	}

	resolved := ip.String()

	if addressesEqual(record.Value, resolved) {
		log.S(ctx).Infow("address unchanged, skip update", "ip", resolved)
		return nil
	}

	updated, err := r.provider.UpdateRecord(ctx, record, resolved)
	if err != nil {
		log.S(ctx).Errorw("failed updating record", zap.Error(err))
		return err
	}

	log.S(ctx).Infow("record updated", "old_ip", record.Value, "ip", updated.Value)
	return nil
}

// addressesEqual compares the stored record value against the freshly
// resolved address in canonical form, so e.g. upper-case or expanded IPv6
// spellings do not trigger spurious writes. An unparseable stored value
// compares unequal and gets overwritten with the canonical form.
func addressesEqual(stored, resolved string) bool {
	a, errA := netip.ParseAddr(strings.TrimSpace(stored))
	b, errB := netip.ParseAddr(resolved)
	if errA != nil || errB != nil {
		return stored == resolved
	}

	return a.Unmap() == b.Unmap()
}
