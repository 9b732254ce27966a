package ddns

import (
	"context"
	"fmt"

	"flaredns/config"
)

// Record is the remote entity owned by the DNS provider. Only Value is ever
// rewritten; everything else is carried so updates can preserve it.
type Record struct {
	ID       string
	ZoneID   string
	Name     string
	Type     string
	Value    string
	TTL      int
	Proxied  *bool
	Priority *uint16
	Comment  string
}

type Interface interface {
	// FindRecord resolves the zone containing hostname and returns the
	// existing record of the given type. Missing records are never created
	// here; setting them up is an operator responsibility.
	FindRecord(ctx context.Context, hostname, recordType string) (Record, error)

	// UpdateRecord replaces the record's value, preserving all other
	// attributes as stored.
	UpdateRecord(ctx context.Context, record Record, newValue string) (Record, error)
}

var Providers = map[string]func(ctx context.Context, provider config.CloudflareConfig) (Interface, error){
	"cloudflare": newCloudflare,
}

// NotFoundError reports a missing zone or record. It is a per-cycle skip,
// not a fatal condition: misconfiguration is not auto-healed.
type NotFoundError struct {
	Hostname string
	Type     string
	Reason   string
}

func (e *NotFoundError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("no zone for %s: %s", e.Hostname, e.Reason)
	}
	return fmt.Sprintf("no %s record for %s: %s", e.Type, e.Hostname, e.Reason)
}

// UpdateError reports a rejected or failed record write. Nothing was
// mutated remotely; the record stays as it was.
type UpdateError struct {
	Hostname string
	Type     string
	Err      error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed updating %s record for %s: %v", e.Type, e.Hostname, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}
