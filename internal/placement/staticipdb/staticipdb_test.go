package staticipdb

import (
	"net/netip"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/model"
	"github.com/armadaproject/placement/internal/placement/testfixtures"
)

func TestStaticIpDbSchema(t *testing.T) {
	err := staticIpDbSchema().Validate()
	assert.NoError(t, err)
}

// twoZoneNetwork has .1 and .2 in z1 and .3 in z2.
func twoZoneNetwork() *model.Network {
	return testfixtures.DeploymentNetwork(
		"private",
		testfixtures.Subnet([]string{"z1"}, "10.0.0.1", "10.0.0.2"),
		testfixtures.Subnet([]string{"z2"}, "10.0.0.3"),
	)
}

func TestNewStaticIpDb(t *testing.T) {
	private := twoZoneNetwork()
	tests := map[string]struct {
		jobNetworks []*model.JobNetwork
		expectError bool
		expected    map[string]NetworkStats
	}{
		"static network": {
			jobNetworks: []*model.JobNetwork{testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.3")},
			expected:    map[string]NetworkStats{"private": {Total: 2}},
		},
		"dynamic networks are not indexed": {
			jobNetworks: []*model.JobNetwork{
				testfixtures.DynamicJobNetwork(testfixtures.DeploymentNetwork("public")),
				testfixtures.StaticJobNetwork(private, "10.0.0.2"),
			},
			expected: map[string]NetworkStats{"private": {Total: 1}},
		},
		"static network without ips": {
			jobNetworks: []*model.JobNetwork{{Name: "private", Static: true, DeploymentNetwork: private}},
			expectError: true,
		},
		"ip in no subnet": {
			jobNetworks: []*model.JobNetwork{testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.9.9")},
			expectError: true,
		},
		"ip declared twice": {
			jobNetworks: []*model.JobNetwork{testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.1")},
			expectError: true,
		},
		"network declared twice": {
			jobNetworks: []*model.JobNetwork{
				testfixtures.StaticJobNetwork(private, "10.0.0.1"),
				testfixtures.StaticJobNetwork(private, "10.0.0.2"),
			},
			expectError: true,
		},
		"dynamic network declared twice": {
			jobNetworks: []*model.JobNetwork{
				testfixtures.DynamicJobNetwork(testfixtures.DeploymentNetwork("public")),
				testfixtures.DynamicJobNetwork(testfixtures.DeploymentNetwork("public")),
			},
			expectError: true,
		},
		"network declared dynamic and static": {
			jobNetworks: []*model.JobNetwork{
				testfixtures.DynamicJobNetwork(private),
				testfixtures.StaticJobNetwork(private, "10.0.0.1"),
			},
			expectError: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			db, err := NewStaticIpDb(tc.jobNetworks, testfixtures.TestJobName)
			if tc.expectError {
				var e *placementerrors.ErrConfiguration
				require.True(t, errors.As(err, &e), "expected ErrConfiguration but got %v", err)
				assert.Equal(t, testfixtures.TestJobName, e.Job)
				return
			}
			require.NoError(t, err)
			stats, err := db.Stats()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stats)
		})
	}
}

func TestValidateAzsAreDeclaredInJobAndSubnets(t *testing.T) {
	tests := map[string]struct {
		desiredAzs        []*model.AvailabilityZone
		expectedNumErrors int
	}{
		"all zones declared": {
			desiredAzs: testfixtures.Azs("z1", "z2"),
		},
		"extra zones are fine": {
			desiredAzs: testfixtures.Azs("z1", "z2", "z3"),
		},
		"one zone missing": {
			desiredAzs:        testfixtures.Azs("z1"),
			expectedNumErrors: 1,
		},
		"job declares no zones": {
			desiredAzs:        nil,
			expectedNumErrors: 3,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			private := twoZoneNetwork()
			db, err := NewStaticIpDb(
				[]*model.JobNetwork{testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.2", "10.0.0.3")},
				testfixtures.TestJobName,
			)
			require.NoError(t, err)

			err = db.ValidateAzsAreDeclaredInJobAndSubnets(tc.desiredAzs)
			if tc.expectedNumErrors == 0 {
				assert.NoError(t, err)
				return
			}
			var e *placementerrors.ErrConfiguration
			require.True(t, errors.As(err, &e), "expected ErrConfiguration but got %v", err)
			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			assert.Len(t, merr.Errors, tc.expectedNumErrors)
		})
	}
}

func TestValidateIpsAreInDesiredAzs(t *testing.T) {
	private := testfixtures.DeploymentNetwork(
		"private",
		testfixtures.Subnet([]string{"z1", "z2"}, "10.0.0.1"),
		testfixtures.Subnet([]string{"z3"}, "10.0.0.2"),
		testfixtures.Subnet(nil, "10.0.0.3"),
	)
	tests := map[string]struct {
		ips         []string
		desiredAzs  []*model.AvailabilityZone
		expectError bool
	}{
		"ip usable in one of its zones": {
			ips:        []string{"10.0.0.1"},
			desiredAzs: testfixtures.Azs("z2"),
		},
		"ip usable in no desired zone": {
			ips:         []string{"10.0.0.1", "10.0.0.2"},
			desiredAzs:  testfixtures.Azs("z1"),
			expectError: true,
		},
		"ip without zones when job has zones": {
			ips:         []string{"10.0.0.3"},
			desiredAzs:  testfixtures.Azs("z1"),
			expectError: true,
		},
		"job without zones is not checked": {
			ips: []string{"10.0.0.2", "10.0.0.3"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			db, err := NewStaticIpDb(
				[]*model.JobNetwork{testfixtures.StaticJobNetwork(private, tc.ips...)},
				testfixtures.TestJobName,
			)
			require.NoError(t, err)
			err = db.ValidateIpsAreInDesiredAzs(tc.desiredAzs)
			if tc.expectError {
				var e *placementerrors.ErrConfiguration
				assert.True(t, errors.As(err, &e), "expected ErrConfiguration but got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClaimAndFind(t *testing.T) {
	private := twoZoneNetwork()
	jobNetwork := testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.2", "10.0.0.3")
	db, err := NewStaticIpDb([]*model.JobNetwork{jobNetwork}, testfixtures.TestJobName)
	require.NoError(t, err)

	row, err := db.FindByNetworkAndIp(jobNetwork, testfixtures.Ip("10.0.0.3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"z2"}, row.AzNames)
	assert.False(t, row.Claimed)

	// Modifying the returned row must not affect the db.
	row.AzNames[0] = "mutated"
	row, err = db.FindByNetworkAndIp(jobNetwork, testfixtures.Ip("10.0.0.3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"z2"}, row.AzNames)

	require.NoError(t, db.Claim(testfixtures.Ip("10.0.0.1")))
	row, err = db.FindByNetworkAndIp(jobNetwork, testfixtures.Ip("10.0.0.1"))
	require.NoError(t, err)
	assert.True(t, row.Claimed)

	next, err := db.TakeNextIpForNetwork(jobNetwork)
	require.NoError(t, err)
	assert.Equal(t, testfixtures.Ip("10.0.0.2"), next.Ip)
	assert.True(t, next.Claimed)

	var lookupErr *placementerrors.ErrLookup
	_, err = db.FindByNetworkAndIp(jobNetwork, testfixtures.Ip("10.0.0.9"))
	assert.True(t, errors.As(err, &lookupErr))
	err = db.Claim(testfixtures.Ip("10.0.0.9"))
	assert.True(t, errors.As(err, &lookupErr))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, map[string]NetworkStats{"private": {Total: 3, Claimed: 2}}, stats)
}

func TestClaimAppliesToEveryNetwork(t *testing.T) {
	first := testfixtures.DeploymentNetwork("first", testfixtures.Subnet([]string{"z1"}, "10.0.0.1", "10.0.0.2"))
	second := testfixtures.DeploymentNetwork("second", testfixtures.Subnet([]string{"z1"}, "10.0.0.1", "10.0.0.2"))
	firstJobNetwork := testfixtures.StaticJobNetwork(first, "10.0.0.1", "10.0.0.2")
	secondJobNetwork := testfixtures.StaticJobNetwork(second, "10.0.0.1", "10.0.0.2")
	db, err := NewStaticIpDb([]*model.JobNetwork{firstJobNetwork, secondJobNetwork}, testfixtures.TestJobName)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, db.Networks())

	require.NoError(t, db.Claim(testfixtures.Ip("10.0.0.1")))
	for _, jobNetwork := range []*model.JobNetwork{firstJobNetwork, secondJobNetwork} {
		next, err := db.TakeNextIpForNetwork(jobNetwork)
		require.NoError(t, err)
		assert.Equal(t, testfixtures.Ip("10.0.0.2"), next.Ip)
	}
}

func TestTakeNextIpForNetwork(t *testing.T) {
	private := twoZoneNetwork()
	jobNetwork := testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.2", "10.0.0.3")
	db, err := NewStaticIpDb([]*model.JobNetwork{jobNetwork}, testfixtures.TestJobName)
	require.NoError(t, err)

	var taken []netip.Addr
	for {
		row, err := db.TakeNextIpForNetwork(jobNetwork)
		require.NoError(t, err)
		if row == nil {
			break
		}
		taken = append(taken, row.Ip)
	}
	assert.Equal(t, testfixtures.Ips("10.0.0.1", "10.0.0.2", "10.0.0.3"), taken)
}

func TestTakeNextIpForNetworkAndAz(t *testing.T) {
	private := testfixtures.DeploymentNetwork(
		"private",
		testfixtures.Subnet([]string{"z1"}, "10.0.0.1"),
		testfixtures.Subnet([]string{"z2"}, "10.0.0.2", "10.0.0.3"),
		testfixtures.Subnet(nil, "10.0.0.4"),
	)
	jobNetwork := testfixtures.StaticJobNetwork(private, "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4")
	db, err := NewStaticIpDb([]*model.JobNetwork{jobNetwork}, testfixtures.TestJobName)
	require.NoError(t, err)

	row, err := db.TakeNextIpForNetworkAndAz(jobNetwork, "z2")
	require.NoError(t, err)
	assert.Equal(t, testfixtures.Ip("10.0.0.2"), row.Ip)

	row, err = db.TakeNextIpForNetworkAndAz(jobNetwork, "")
	require.NoError(t, err)
	assert.Equal(t, testfixtures.Ip("10.0.0.4"), row.Ip)

	row, err = db.TakeNextIpForNetworkAndAz(jobNetwork, "z2")
	require.NoError(t, err)
	assert.Equal(t, testfixtures.Ip("10.0.0.3"), row.Ip)

	row, err = db.TakeNextIpForNetworkAndAz(jobNetwork, "z2")
	require.NoError(t, err)
	assert.Nil(t, row)

	ip, err := db.ClaimStaticIpForAzAndNetwork("z1", jobNetwork)
	require.NoError(t, err)
	assert.Equal(t, testfixtures.Ip("10.0.0.1"), ip)

	_, err = db.ClaimStaticIpForAzAndNetwork("z1", jobNetwork)
	var e *placementerrors.ErrPlacementExhausted
	require.True(t, errors.As(err, &e), "expected ErrPlacementExhausted but got %v", err)
	assert.Equal(t, "z1", e.Az)
	assert.Equal(t, "private", e.Network)
}

func TestDistributeEvenlyPerZone(t *testing.T) {
	tests := map[string]struct {
		subnets          []*model.Subnet
		ips              []string
		claimed          []string
		expectedOrder    []string
		expectedFirstAzs []string
	}{
		"single zone ips are interleaved": {
			subnets: []*model.Subnet{
				testfixtures.Subnet([]string{"z1"}, "10.0.0.1", "10.0.0.2"),
				testfixtures.Subnet([]string{"z2"}, "10.0.0.3"),
			},
			ips:              []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"},
			expectedOrder:    []string{"10.0.0.1", "10.0.0.3", "10.0.0.2"},
			expectedFirstAzs: []string{"z1", "z2", "z1"},
		},
		"multi zone ips alternate zones": {
			subnets: []*model.Subnet{
				testfixtures.Subnet([]string{"z1", "z2"}, "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"),
			},
			ips:              []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"},
			expectedOrder:    []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"},
			expectedFirstAzs: []string{"z1", "z2", "z1", "z2"},
		},
		"claimed ips are skipped": {
			subnets: []*model.Subnet{
				testfixtures.Subnet([]string{"z1"}, "10.0.0.1", "10.0.0.2", "10.0.0.3"),
				testfixtures.Subnet([]string{"z2"}, "10.0.0.4", "10.0.0.5"),
			},
			ips:              []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"},
			claimed:          []string{"10.0.0.1", "10.0.0.4"},
			expectedOrder:    []string{"10.0.0.2", "10.0.0.5", "10.0.0.3"},
			expectedFirstAzs: []string{"z1", "z2", "z1"},
		},
		"ips without zones": {
			subnets: []*model.Subnet{
				testfixtures.Subnet(nil, "10.0.0.1", "10.0.0.2"),
			},
			ips:              []string{"10.0.0.1", "10.0.0.2"},
			expectedOrder:    []string{"10.0.0.1", "10.0.0.2"},
			expectedFirstAzs: []string{"", ""},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			private := testfixtures.DeploymentNetwork("private", tc.subnets...)
			jobNetwork := testfixtures.StaticJobNetwork(private, tc.ips...)
			db, err := NewStaticIpDb([]*model.JobNetwork{jobNetwork}, testfixtures.TestJobName)
			require.NoError(t, err)
			for _, ip := range tc.claimed {
				require.NoError(t, db.Claim(testfixtures.Ip(ip)))
			}

			require.NoError(t, db.DistributeEvenlyPerZone())

			var order []string
			var firstAzs []string
			for row, err := db.TakeNextIpForNetwork(jobNetwork); row != nil; row, err = db.TakeNextIpForNetwork(jobNetwork) {
				require.NoError(t, err)
				order = append(order, row.Ip.String())
				firstAzs = append(firstAzs, row.FirstAzName())
			}
			assert.Equal(t, tc.expectedOrder, order)
			assert.Equal(t, tc.expectedFirstAzs, firstAzs)
		})
	}
}

func TestDistributeEvenlyPerZone_Fairness(t *testing.T) {
	// Three zones with four ips each, declared zone by zone.
	var subnets []*model.Subnet
	var ips []string
	for z, azName := range []string{"z1", "z2", "z3"} {
		var subnetIps []string
		for i := 0; i < 4; i++ {
			subnetIps = append(subnetIps, netip.AddrFrom4([4]byte{10, 0, byte(z), byte(i + 1)}).String())
		}
		subnets = append(subnets, testfixtures.Subnet([]string{azName}, subnetIps...))
		ips = append(ips, subnetIps...)
	}
	jobNetwork := testfixtures.StaticJobNetwork(testfixtures.DeploymentNetwork("private", subnets...), ips...)
	db, err := NewStaticIpDb([]*model.JobNetwork{jobNetwork}, testfixtures.TestJobName)
	require.NoError(t, err)
	require.NoError(t, db.DistributeEvenlyPerZone())

	// Any multiple of the number of zones is spread evenly.
	countByAz := make(map[string]int)
	for i := 0; i < 6; i++ {
		row, err := db.TakeNextIpForNetwork(jobNetwork)
		require.NoError(t, err)
		require.NotNil(t, row)
		countByAz[row.FirstAzName()]++
	}
	assert.Equal(t, map[string]int{"z1": 2, "z2": 2, "z3": 2}, countByAz)
}

func TestAllowsAz(t *testing.T) {
	withZones := &StaticIpWithAzs{AzNames: []string{"z1", "z2"}}
	assert.True(t, withZones.AllowsAz("z2"))
	assert.False(t, withZones.AllowsAz("z3"))
	assert.False(t, withZones.AllowsAz(""))
	assert.Equal(t, "z1", withZones.FirstAzName())

	withoutZones := &StaticIpWithAzs{}
	assert.True(t, withoutZones.AllowsAz(""))
	assert.False(t, withoutZones.AllowsAz("z1"))
	assert.Equal(t, "", withoutZones.FirstAzName())
}

func TestMoveToFront(t *testing.T) {
	assert.Equal(t, []string{"z2", "z1", "z3"}, moveToFront([]string{"z1", "z2", "z3"}, "z2"))
	assert.Equal(t, []string{"z1", "z2"}, moveToFront([]string{"z1", "z2"}, "z1"))
	assert.Equal(t, []string{"z1"}, moveToFront([]string{"z1"}, "z9"))
	assert.Nil(t, moveToFront(nil, ""))
}
