package testutil

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// NetipComparers allows cmp to compare values containing addresses and prefixes.
var NetipComparers = cmp.Options{
	cmp.Comparer(func(a, b netip.Addr) bool { return a == b }),
	cmp.Comparer(func(a, b netip.Prefix) bool { return a == b }),
}

// AssertCmpEqual fails the test with a diff if expected and actual differ according to cmp.
func AssertCmpEqual(t *testing.T, expected, actual any, opts ...cmp.Option) bool {
	t.Helper()
	diff := cmp.Diff(expected, actual, append(opts, NetipComparers)...)
	if diff != "" {
		assert.Fail(t, fmt.Sprintf("Not equal (-expected +actual):\n%s", diff))
		return false
	}
	return true
}

func RequireCmpEqual(t *testing.T, expected, actual any, opts ...cmp.Option) {
	t.Helper()
	if AssertCmpEqual(t, expected, actual, opts...) {
		return
	}
	t.FailNow()
}
