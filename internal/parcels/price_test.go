package parcels_test

import (
	"encoding/json"
	"testing"

	"github.com/Houeta/logitrack/internal/parcels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		weight string
		want   float64
	}{
		{weight: "0", want: 5},
		{weight: "3", want: 11},
		{weight: "2.5", want: 10},
		{weight: "1.2 kg", want: 7.4},
		{weight: "0.333", want: 5.666},
		{weight: "1.2345", want: 7.469},
		{weight: "0.001", want: 5.002},
		{weight: "0.004", want: 5.008},
		{weight: "", want: parcels.FallbackPrice},
		{weight: "heavy", want: parcels.FallbackPrice},
		{weight: "NaN", want: parcels.FallbackPrice},
		{weight: "Inf", want: parcels.FallbackPrice},
	}

	for _, tt := range tests {
		t.Run(tt.weight, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, parcels.Price(tt.weight), 1e-9)
		})
	}
}

func TestRawWeight_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var in parcels.Input
	require.NoError(t, json.Unmarshal([]byte(`{"weight": 3.5}`), &in))
	assert.Equal(t, parcels.RawWeight("3.5"), in.Weight)

	require.NoError(t, json.Unmarshal([]byte(`{"weight": "2 kg"}`), &in))
	assert.Equal(t, parcels.RawWeight("2 kg"), in.Weight)

	require.NoError(t, json.Unmarshal([]byte(`{"weight": null}`), &in))
	assert.Empty(t, in.Weight)

	require.Error(t, json.Unmarshal([]byte(`{"weight": {}}`), &in))
}
