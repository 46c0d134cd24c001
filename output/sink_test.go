package output_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
)

type failingSink struct{ closed bool }

func (s *failingSink) Write(*output.TripRecord) error {
	return errors.New("broken")
}

func (s *failingSink) Close() error {
	s.closed = true
	return nil
}

func TestMultiSink(t *testing.T) {
	mem := &output.MemorySink{}
	bad := &failingSink{}
	sink := output.MultiSink{bad, mem, output.LogSink{}}

	r := &output.TripRecord{PersonID: 1, Modes: []string{"walking"}}
	assert.Error(t, sink.Write(r))
	require.Len(t, mem.Records(), 1)
	assert.Equal(t, r, mem.Records()[0])

	assert.NoError(t, sink.Close())
	assert.True(t, bad.closed)
}

func TestRecordJSON(t *testing.T) {
	r := &output.TripRecord{
		PersonID:     3,
		Start:        [2]float64{10, 53.5},
		Modes:        []string{"walking", "bus", "walking"},
		DominantMode: "bus",
		Replans:      1,
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "bus", m["dominant_mode"])
	assert.Equal(t, []any{10., 53.5}, m["start"])
	assert.NotContains(t, m, "fallback_reason")
	assert.NotContains(t, m, "forced_walk")

	assert.Equal(t, "multimodal.trips.bus", output.Subject(output.DefaultSubject, r))
	assert.Equal(t, "x.walking", output.Subject("x", &output.TripRecord{}))
}
