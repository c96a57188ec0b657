package flow

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargehub/core/model"
)

func truck(id string, weekday, arrival, pause int) model.TruckArrival {
	return model.TruckArrival{ID: id, Weekday: weekday, ArrivalMin: arrival, PauseMin: pause, CapacityKWh: 400, Charger: model.ChargerNCS}
}

func TestBuildBayNetworkEmpty(t *testing.T) {
	_, err := BuildBayNetwork(nil, 3)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBuildBayNetworkBuckets(t *testing.T) {
	trucks := []model.TruckArrival{truck("a", 1, 10, 45), truck("b", 2, 0, 20)}
	bn, err := BuildBayNetwork(trucks, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, bn.Start)
	// last departure: 1440 + 20 + 5 = 1465
	assert.Equal(t, (1465-10)/5+1, bn.Buckets)
	assert.Equal(t, 2+bn.Buckets+4, bn.Nodes())
}

func TestOverlappingTrucksShareOneBay(t *testing.T) {
	trucks := []model.TruckArrival{truck("1", 1, 0, 45), truck("2", 1, 5, 45), truck("3", 1, 10, 45)}
	bn, err := BuildBayNetwork(trucks, 1)
	require.NoError(t, err)
	flow, _ := bn.Solve()
	assert.Equal(t, int64(1), flow)
	assert.Equal(t, 1, bn.ServedCount())

	bn, err = BuildBayNetwork(trucks, 3)
	require.NoError(t, err)
	bn.Solve()
	assert.Equal(t, 3, bn.ServedCount())
}

func TestSequentialTrucksReuseBay(t *testing.T) {
	// The second truck arrives exactly when the changeover after the first
	// one is over; the third overlaps both.
	trucks := []model.TruckArrival{truck("1", 1, 0, 40), truck("2", 1, 45, 40), truck("3", 1, 20, 40)}
	bn, err := BuildBayNetwork(trucks, 1)
	require.NoError(t, err)
	bn.Solve()
	assert.Equal(t, int64(1), bn.Served(0))
	assert.Equal(t, int64(1), bn.Served(1))
	assert.Equal(t, int64(0), bn.Served(2))
}

func TestUnalignedArrivalIsReachable(t *testing.T) {
	trucks := []model.TruckArrival{truck("1", 1, 0, 30), truck("2", 1, 37, 30)}
	bn, err := BuildBayNetwork(trucks, 1)
	require.NoError(t, err)
	bn.Solve()
	assert.Equal(t, 2, bn.ServedCount())
}

func randomTrucks(r *rand.Rand, n int) []model.TruckArrival {
	trucks := make([]model.TruckArrival, n)
	for i := range trucks {
		trucks[i] = truck(string(rune('a'+i)), 1+r.Intn(2), 5*r.Intn(120), 60)
	}
	return trucks
}

func TestServedFlowIsBinary(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	trucks := randomTrucks(r, 20)
	for bays := 1; bays <= 8; bays++ {
		bn, err := BuildBayNetwork(trucks, bays)
		require.NoError(t, err)
		bn.Solve()
		for i := range trucks {
			f := bn.Served(i)
			assert.True(t, f == 0 || f == 1, "bays %d truck %d flow %d", bays, i, f)
		}
	}
}

func TestServedCountMonotoneInBays(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		trucks := randomTrucks(r, 15)
		last := 0
		for bays := 1; bays <= 15; bays++ {
			bn, err := BuildBayNetwork(trucks, bays)
			require.NoError(t, err)
			bn.Solve()
			served := bn.ServedCount()
			assert.GreaterOrEqual(t, served, last, "round %d bays %d", round, bays)
			last = served
		}
		assert.Equal(t, len(trucks), last)
	}
}
