package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    models.Weight
		wantErr bool
	}{
		{name: "bare number", raw: "3", want: 3},
		{name: "with unit", raw: "2.5 kg", want: 2.5},
		{name: "unit without space", raw: "1.2kg", want: 1.2},
		{name: "upper case unit", raw: " 4 KG ", want: 4},
		{name: "not a number", raw: "heavy", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "infinity", raw: "Inf", wantErr: true},
		{name: "nan", raw: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := models.ParseWeight(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Kg(), got.Kg(), 1e-9)
		})
	}
}

func TestWeightJSON(t *testing.T) {
	t.Parallel()

	t.Run("success - marshal with unit", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(models.Weight(2.5))
		require.NoError(t, err)
		assert.JSONEq(t, `"2.5 kg"`, string(data))
	})

	t.Run("success - unmarshal number and string", func(t *testing.T) {
		t.Parallel()
		var fromNumber, fromString, fromEmpty models.Weight
		require.NoError(t, json.Unmarshal([]byte(`3`), &fromNumber))
		require.NoError(t, json.Unmarshal([]byte(`"1.2 kg"`), &fromString))
		require.NoError(t, json.Unmarshal([]byte(`""`), &fromEmpty))
		assert.InDelta(t, 3.0, fromNumber.Kg(), 1e-9)
		assert.InDelta(t, 1.2, fromString.Kg(), 1e-9)
		assert.Zero(t, fromEmpty.Kg())
	})

	t.Run("error - unmarshal garbage", func(t *testing.T) {
		t.Parallel()
		var weight models.Weight
		require.Error(t, json.Unmarshal([]byte(`"a lot"`), &weight))
		require.Error(t, json.Unmarshal([]byte(`{}`), &weight))
	})
}

func TestParcelProvenance(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	firstEntry := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	t.Run("created time prefers explicit field", func(t *testing.T) {
		t.Parallel()
		parcel := models.Parcel{
			CreatedAt: &created,
			History:   []models.HistoryEntry{{Date: firstEntry, Status: models.StatusRegistered}},
		}
		got, ok := parcel.CreatedTime()
		require.True(t, ok)
		assert.Equal(t, created, got)
	})

	t.Run("created time falls back to history", func(t *testing.T) {
		t.Parallel()
		parcel := models.Parcel{History: []models.HistoryEntry{{Date: firstEntry, Status: models.StatusRegistered}}}
		got, ok := parcel.CreatedTime()
		require.True(t, ok)
		assert.Equal(t, firstEntry, got)
	})

	t.Run("created time unknown", func(t *testing.T) {
		t.Parallel()
		_, ok := models.Parcel{}.CreatedTime()
		assert.False(t, ok)
	})

	t.Run("registered by fallback chain", func(t *testing.T) {
		t.Parallel()
		history := []models.HistoryEntry{{Status: models.StatusRegistered, By: "first@logitrack.com"}}

		full := models.Parcel{
			RegisteredByEmail: "rbe@logitrack.com",
			RegisteredBy:      "reg@logitrack.com",
			CreatedByEmail:    "cbe@logitrack.com",
			CreatedBy:         "c@logitrack.com",
			History:           history,
		}
		assert.Equal(t, "rbe@logitrack.com", full.Registrar())

		full.RegisteredByEmail = ""
		assert.Equal(t, "reg@logitrack.com", full.Registrar())

		full.RegisteredBy = ""
		assert.Equal(t, "cbe@logitrack.com", full.Registrar())

		full.CreatedByEmail = ""
		assert.Equal(t, "c@logitrack.com", full.Registrar())

		full.CreatedBy = ""
		assert.Equal(t, "first@logitrack.com", full.Registrar())

		assert.Empty(t, models.Parcel{}.Registrar())
	})

	t.Run("provenance fields decode from stored json", func(t *testing.T) {
		t.Parallel()
		var parcel models.Parcel
		raw := `{"id":1,"tracking":"LT-1","registeredByEmail":"m.roberts@logitrack.com","createdByEmail":"e.davis@logitrack.com"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &parcel))

		assert.Equal(t, "m.roberts@logitrack.com", parcel.RegisteredByEmail)
		assert.Equal(t, "e.davis@logitrack.com", parcel.CreatedByEmail)
		assert.Equal(t, "m.roberts@logitrack.com", parcel.Registrar())

		out, err := json.Marshal(models.Parcel{Tracking: "LT-2"})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "registeredByEmail")
		assert.NotContains(t, string(out), "createdByEmail")
	})
}

func TestParcelValidate(t *testing.T) {
	t.Parallel()

	valid := models.Parcel{
		Tracking:     "LT-1",
		DeliveryType: models.DeliveryAddress,
		Status:       models.StatusInTransit,
		History:      []models.HistoryEntry{{Status: models.StatusRegistered}},
	}
	require.NoError(t, valid.Validate())

	badStatus := valid
	badStatus.Status = "Lost"
	require.ErrorIs(t, badStatus.Validate(), models.ErrValidation)

	badDelivery := valid
	badDelivery.DeliveryType = "Drone"
	require.ErrorIs(t, badDelivery.Validate(), models.ErrValidation)

	badHistory := valid
	badHistory.History = []models.HistoryEntry{{Status: "Teleported"}}
	require.ErrorIs(t, badHistory.Validate(), models.ErrValidation)

	require.ErrorIs(t, models.User{Email: "a@b.c", Role: "root"}.Validate(), models.ErrValidation)
	require.NoError(t, models.User{Email: "a@b.c", Role: models.RoleClient}.Validate())
}
