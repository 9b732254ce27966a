package common

import (
	"errors"
	"fmt"
	"strings"
)

type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f *Family) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "4", "v4", "ipv4", "a":
		*f = IPv4
	case "6", "v6", "ipv6", "aaaa":
		*f = IPv6
	default:
		return errors.New("invalid IP family")
	}
	return nil
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("unknown<%d>", int(f))
	}
}

// RecordType returns the DNS record type managed for this family.
func (f Family) RecordType() string {
	if f == IPv6 {
		return "AAAA"
	}
	return "A"
}

// Network restricts a dial network ("tcp") to this family ("tcp4"/"tcp6").
// Dual-stack hosts must not let one family answer for the other.
func (f Family) Network(base string) string {
	if f == IPv6 {
		return base + "6"
	}
	return base + "4"
}

type IPSelectMode int

const (
	SelectFirst IPSelectMode = iota
	SelectShortest
	SelectLast
)

func (m *IPSelectMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "first":
		*m = SelectFirst
	case "shortest":
		*m = SelectShortest
	case "last":
		*m = SelectLast
	default:
		return errors.New("invalid select mode")
	}
	return nil
}

func (m IPSelectMode) String() string {
	switch m {
	case SelectFirst:
		return "first"
	case SelectShortest:
		return "shortest"
	case SelectLast:
		return "last"
	default:
		return fmt.Sprintf("unknown<%d>", int(m))
	}
}
