package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/placement/internal/common/placementerrors"
)

// MaxIpRangeSize is the largest number of addresses a single range may expand to.
const MaxIpRangeSize = 1 << 16

// ParseIpList parses a list of entries, each either a single address or an inclusive range "first - last",
// into the addresses they denote, in order.
func ParseIpList(entries []string) ([]netip.Addr, error) {
	var rv []netip.Addr
	for _, entry := range entries {
		addrs, err := ParseIpRange(entry)
		if err != nil {
			return nil, err
		}
		rv = append(rv, addrs...)
	}
	return rv, nil
}

// ParseIpRange parses a single address or an inclusive range "first - last".
func ParseIpRange(s string) ([]netip.Addr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	first, last, isRange := strings.Cut(s, "-")
	if !isRange {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{
				Name:    "ip",
				Value:   s,
				Message: err.Error(),
			})
		}
		return []netip.Addr{addr}, nil
	}
	from, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{Name: "ip range", Value: s, Message: err.Error()})
	}
	to, err := netip.ParseAddr(strings.TrimSpace(last))
	if err != nil {
		return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{Name: "ip range", Value: s, Message: err.Error()})
	}
	if from.Is4() != to.Is4() {
		return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{
			Name:    "ip range",
			Value:   s,
			Message: "range mixes address families",
		})
	}
	if to.Less(from) {
		return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{
			Name:    "ip range",
			Value:   s,
			Message: "range ends before it starts",
		})
	}
	var rv []netip.Addr
	for addr := from; ; addr = addr.Next() {
		if len(rv) == MaxIpRangeSize {
			return nil, errors.WithStack(&placementerrors.ErrInvalidArgument{
				Name:    "ip range",
				Value:   s,
				Message: fmt.Sprintf("range contains more than %d addresses", MaxIpRangeSize),
			})
		}
		rv = append(rv, addr)
		if addr == to {
			break
		}
	}
	return rv, nil
}
