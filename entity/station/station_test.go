package station_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/station"
)

func pos(x, y float64) entity.Position {
	return entity.Position{10 + x*0.001, 53.5 + y*0.001}
}

type fakeVehicle struct {
	id    int32
	stops []entity.Position
}

func (v *fakeVehicle) ID() int32                                { return v.id }
func (v *fakeVehicle) Position() entity.Position                { return entity.Position{} }
func (v *fakeVehicle) Capacity() int                            { return 1 }
func (v *fakeVehicle) PassengerCount() int                      { return 0 }
func (v *fakeVehicle) RemainingStops() []entity.Position        { return v.stops }
func (v *fakeVehicle) TryEnterPassenger(entity.IPassenger) bool { return true }
func (v *fakeVehicle) LeavePassenger(entity.IPassenger) bool    { return true }

func TestNearestAndLines(t *testing.T) {
	l := station.NewLayer(entity.Mode_TRAIN, 0)
	a := l.Add(1, "A", pos(0, 0), 10, 10, 11)
	l.Add(2, "B", pos(5, 0), 11)
	assert.Equal(t, []int32{10, 11}, a.Lines())
	assert.Equal(t, map[int32]struct{}{10: {}, 11: {}}, l.LinesServed(a))

	s := l.Nearest(pos(4, 0), nil)
	require.NotNil(t, s)
	assert.Equal(t, int32(2), s.ID())
	s = l.Nearest(pos(4, 0), func(s entity.IStation) bool { return len(s.Lines()) > 1 })
	require.NotNil(t, s)
	assert.Equal(t, int32(1), s.ID())
	assert.Nil(t, l.Nearest(pos(4, 0), func(entity.IStation) bool { return false }))

	got, err := l.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name())
	_, err = l.Get(3)
	assert.Error(t, err)
	assert.Len(t, l.Stations(), 2)
}

func TestFindDockedVehicle(t *testing.T) {
	l := station.NewLayer(entity.Mode_BUS, 0)
	a := l.Add(1, "A", pos(0, 0), 1)
	inbound := &fakeVehicle{id: 1, stops: []entity.Position{pos(-3, 0)}}
	outbound := &fakeVehicle{id: 2, stops: []entity.Position{pos(3, 0), pos(6, 0)}}
	assert.Nil(t, a.Find(pos(6, 0)))

	a.Dock(inbound)
	a.Dock(outbound)
	a.Dock(outbound)
	assert.Len(t, a.Docked(), 2)
	assert.Equal(t, outbound, a.Find(pos(6, 0)))
	assert.Equal(t, inbound, a.Find(pos(-3, 0)))
	assert.Nil(t, a.Find(pos(9, 0)))

	a.Undock(outbound)
	assert.Nil(t, a.Find(pos(6, 0)))
}
