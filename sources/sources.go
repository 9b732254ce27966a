package sources

import (
	"context"
	"fmt"
	"net"

	"flaredns/common"
	"flaredns/config"
)

type Interface interface {
	Lookup(ctx context.Context) (net.IP, error)
	Typename() string
}

var Sources = map[string]func(ctx context.Context, family common.Family, source config.SourceConfig) (Interface, error){
	"echo":      newEcho,
	"trace":     newTrace,
	"interface": newInterface,
}

// ResolutionError reports that the public address of a family could not be
// determined this cycle. The caller skips the family; the next cycle is the
// retry.
type ResolutionError struct {
	Family common.Family
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed resolving %s address: %v", e.Family, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
