package networkplanner

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/mocks"
	"github.com/armadaproject/placement/internal/placement/model"
	"github.com/armadaproject/placement/internal/placement/testfixtures"
)

func newInstancePlan(azName string) *model.InstancePlan {
	desired := &model.DesiredInstance{Index: 0}
	if azName != "" {
		desired.Az = &model.AvailabilityZone{Name: azName}
	}
	return &model.InstancePlan{
		Kind:            model.NewInstancePlan,
		Instance:        &model.Instance{Uuid: "uuid-0", JobName: testfixtures.TestJobName},
		DesiredInstance: desired,
	}
}

func TestNetworkPlanWithDynamicReservation(t *testing.T) {
	planner := NewPlanner(nil, nil)
	instancePlan := newInstancePlan("z1")
	jobNetwork := testfixtures.DynamicJobNetwork(testfixtures.DeploymentNetwork("public"))

	networkPlan := planner.NetworkPlanWithDynamicReservation(instancePlan, jobNetwork)

	assert.False(t, networkPlan.Reservation.IsStatic())
	assert.Same(t, instancePlan.Instance, networkPlan.Reservation.Instance)
	assert.Same(t, jobNetwork.DeploymentNetwork, networkPlan.Reservation.Network)
}

func TestNetworkPlanWithStaticReservation(t *testing.T) {
	planner := NewPlanner(nil, nil)
	instancePlan := newInstancePlan("z1")
	network := testfixtures.DeploymentNetwork("private", testfixtures.Subnet([]string{"z1"}, "10.0.0.1"))
	jobNetwork := testfixtures.StaticJobNetwork(network, "10.0.0.1")

	networkPlan := planner.NetworkPlanWithStaticReservation(instancePlan, jobNetwork, testfixtures.Ip("10.0.0.1"))

	assert.True(t, networkPlan.Reservation.IsStatic())
	assert.Equal(t, testfixtures.Ip("10.0.0.1"), networkPlan.Reservation.Ip)
	assert.Equal(t, "private", networkPlan.NetworkName())
}

func TestNetworkPlanWithClaimedStaticReservation(t *testing.T) {
	network := testfixtures.DeploymentNetwork("private", testfixtures.Subnet([]string{"z1"}, "10.0.0.1"))
	jobNetwork := testfixtures.StaticJobNetwork(network, "10.0.0.1")
	exhausted := &placementerrors.ErrPlacementExhausted{Job: testfixtures.TestJobName, Network: "private", Az: "z2"}

	tests := map[string]struct {
		azName      string
		claimedIp   string
		claimErr    error
		expectError bool
	}{
		"claims in the plan's zone": {
			azName:    "z1",
			claimedIp: "10.0.0.1",
		},
		"claims without a zone": {
			azName:    "",
			claimedIp: "10.0.0.1",
		},
		"claim fails": {
			azName:      "z2",
			claimErr:    errors.WithStack(exhausted),
			expectError: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			claimer := mocks.NewMockStaticIpClaimer(ctrl)
			call := claimer.EXPECT().ClaimStaticIpForAzAndNetwork(tc.azName, jobNetwork).Times(1)
			if tc.claimErr != nil {
				call.Return(testfixtures.Ip("0.0.0.0"), tc.claimErr)
			} else {
				call.Return(testfixtures.Ip(tc.claimedIp), nil)
			}

			planner := NewPlanner(claimer, nil)
			networkPlan, err := planner.NetworkPlanWithClaimedStaticReservation(newInstancePlan(tc.azName), jobNetwork)
			if tc.expectError {
				var e *placementerrors.ErrPlacementExhausted
				assert.True(t, errors.As(err, &e), "expected ErrPlacementExhausted but got %v", err)
				assert.Nil(t, networkPlan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testfixtures.Ip(tc.claimedIp), networkPlan.Reservation.Ip)
			assert.True(t, networkPlan.Reservation.IsStatic())
		})
	}
}

func TestNetworkPlanWithClaimedStaticReservation_NoClaimer(t *testing.T) {
	network := testfixtures.DeploymentNetwork("private", testfixtures.Subnet([]string{"z1"}, "10.0.0.1"))
	planner := NewPlanner(nil, nil)
	_, err := planner.NetworkPlanWithClaimedStaticReservation(newInstancePlan("z1"), testfixtures.StaticJobNetwork(network, "10.0.0.1"))
	assert.Error(t, err)
}
