package ddns

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"flaredns/common"
	"flaredns/config"
	"flaredns/log"

	cfapi "github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"
)

const defaultAPITimeout = 30 * time.Second

// cloudflare talks to the Cloudflare v4 API using account-wide credentials
// (email + global API key). Scoped tokens are not supported.
type cloudflare struct {
	api *cfapi.API

	// zone ID for the managed hostname, filled on first successful lookup.
	// Zones are assumed not to move while the process runs.
	zoneID string
}

type apiLogger struct {
	ctx context.Context
}

func (l *apiLogger) Printf(format string, v ...interface{}) {
	log.S(l.ctx).Debugf(format, v...)
}

// zone matches the hostname against the account's zones by longest
// dot-boundary suffix, so "a.b.example.com" prefers zone "b.example.com"
// over "example.com".
func (d *cloudflare) zone(ctx context.Context, hostname string) (string, error) {
	if d.zoneID != "" {
		return d.zoneID, nil
	}

	zones, err := d.api.ListZones(ctx)
	if err != nil {
		log.S(ctx).Errorw("failed list zones", zap.Error(err))
		return "", fmt.Errorf("failed list zones: %w", err)
	}

	longest := 0
	zoneID := ""
	for _, z := range zones {
		if hostname != z.Name && !strings.HasSuffix(hostname, "."+z.Name) {
			continue
		}
		if len(z.Name) > longest {
			longest, zoneID = len(z.Name), z.ID
		}
	}

	if zoneID == "" {
		log.S(ctx).Errorw("hostname not covered by any zone", "hostname", hostname, "zones", len(zones))
		return "", &NotFoundError{Hostname: hostname, Reason: "hostname not covered by any zone on this account"}
	}

	log.S(ctx).Debugw("matched zone", "zone_id", zoneID)
	d.zoneID = zoneID
	return zoneID, nil
}

func (d *cloudflare) FindRecord(ctx context.Context, hostname, recordType string) (Record, error) {
	ctx = log.SWith(ctx,
		"action", "find",
		"record_type", recordType,
		"hostname", hostname)

	zoneID, err := d.zone(ctx, hostname)
	if err != nil {
		return Record{}, err
	}

	params := cfapi.ListDNSRecordsParams{
		Type: recordType,
		Name: hostname,
	}

	cfRecords, info, err := d.api.ListDNSRecords(ctx, cfapi.ZoneIdentifier(zoneID), params)
	if err != nil {
		log.S(ctx).Errorw("failed list records", zap.Error(err))
		return Record{}, fmt.Errorf("failed list records: %w", err)
	}

	if info.HasMorePages() {
		log.S(ctx).Warnw("partial result, ignore remaining", "count", len(cfRecords), "total", info.Count, "pages", info.TotalPages)
	}

	if len(cfRecords) == 0 {
		return Record{}, &NotFoundError{Hostname: hostname, Type: recordType, Reason: "record does not exist; create it first"}
	}

	// Tie-break for duplicate name+type entries: the first record in the
	// provider's list order is managed, the rest are left alone.
	if len(cfRecords) > 1 {
		log.S(ctx).Warnw("multiple records match, managing the first", "count", len(cfRecords))
	}

	record := fromAPIRecord(cfRecords[0], zoneID)
	log.S(ctx).Debugw("found record", "record_id", record.ID, "value", record.Value)

	return record, nil
}

func (d *cloudflare) UpdateRecord(ctx context.Context, record Record, newValue string) (Record, error) {
	ctx = log.SWith(ctx,
		"action", "update",
		"record_type", record.Type,
		"hostname", record.Name,
		"record_id", record.ID,
		"value", newValue)

	params := cfapi.UpdateDNSRecordParams{
		ID:       record.ID,
		Type:     record.Type,
		Name:     record.Name,
		Content:  newValue,
		TTL:      record.TTL,
		Proxied:  record.Proxied,
		Priority: record.Priority,
		Comment:  &record.Comment,
	}

	cfRecord, err := d.api.UpdateDNSRecord(ctx, cfapi.ZoneIdentifier(record.ZoneID), params)
	if err != nil {
		log.S(ctx).Warnw("failed update record", zap.Error(err))
		return Record{}, &UpdateError{Hostname: record.Name, Type: record.Type, Err: err}
	}

	updated := fromAPIRecord(cfRecord, record.ZoneID)
	log.S(ctx).Debugw("record written", "record_id", updated.ID)

	return updated, nil
}

func fromAPIRecord(r cfapi.DNSRecord, zoneID string) Record {
	return Record{
		ID:       r.ID,
		ZoneID:   zoneID,
		Name:     r.Name,
		Type:     r.Type,
		Value:    r.Content,
		TTL:      r.TTL,
		Proxied:  r.Proxied,
		Priority: r.Priority,
		Comment:  r.Comment,
	}
}

func newCloudflare(ctx context.Context, provider config.CloudflareConfig) (Interface, error) {
	ctx = log.SWith(ctx, "type", "cloudflare")

	// Bounded request timeout so a stalled provider call cannot block a
	// cycle indefinitely.
	client := &http.Client{Timeout: defaultAPITimeout}
	if ctxClient := ctx.Value(common.HTTPClientKey); ctxClient != nil {
		client = ctxClient.(*http.Client)
	}

	opts := []cfapi.Option{
		cfapi.UsingLogger(&apiLogger{ctx: ctx}),
		cfapi.HTTPClient(client),
	}

	api, err := cfapi.New(provider.APIKey, provider.Email, opts...)
	if err != nil {
		log.S(ctx).Errorw("failed create cloudflare API", zap.Error(err))
		return nil, fmt.Errorf("failed create cloudflare API: %w", err)
	}

	return &cloudflare{api: api}, nil
}
