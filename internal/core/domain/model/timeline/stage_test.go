package timeline_test

import (
	"encoding/json"
	"testing"

	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_ValidateFollows(t *testing.T) {
	tests := []struct {
		name    string
		prev    timeline.Stage
		next    timeline.Stage
		wantErr error
	}{
		{name: "pending to picking", prev: timeline.Pending, next: timeline.Picking},
		{name: "picking to facility leg", prev: timeline.Picking, next: timeline.FacilityToRelay},
		{name: "facility leg to relay leg", prev: timeline.FacilityToRelay, next: timeline.RelayToDestination},
		{name: "relay leg to delivered", prev: timeline.RelayToDestination, next: timeline.Delivered},
		{name: "gap after a dropped write", prev: timeline.Picking, next: timeline.RelayToDestination},
		{name: "cancel while picking", prev: timeline.Picking, next: timeline.Cancelled},
		{name: "recurring stage", prev: timeline.Picking, next: timeline.Picking, wantErr: errs.ErrValueIsInvalid},
		{name: "going back", prev: timeline.FacilityToRelay, next: timeline.Picking, wantErr: errs.ErrValueIsInvalid},
		{name: "after delivered", prev: timeline.Delivered, next: timeline.Cancelled, wantErr: errs.ErrObjectIsInInvalidState},
		{name: "after cancelled", prev: timeline.Cancelled, next: timeline.Delivered, wantErr: errs.ErrObjectIsInInvalidState},
		{name: "unknown stage", prev: timeline.Pending, next: timeline.UnknownStage, wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.next.ValidateFollows(tt.prev)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStage_IsTerminal(t *testing.T) {
	for _, s := range timeline.DeliveryStages {
		assert.Equal(t, s == timeline.Delivered, s.IsTerminal(), s.String())
	}
	assert.True(t, timeline.Cancelled.IsTerminal())
}

func TestStage_DeliveryStagesAreStrictlyIncreasing(t *testing.T) {
	for i := 1; i < len(timeline.DeliveryStages); i++ {
		assert.Less(t, timeline.DeliveryStages[i-1].Index(), timeline.DeliveryStages[i].Index())
	}
}

func TestStage_TextRoundTrip(t *testing.T) {
	raw, err := json.Marshal(map[string]timeline.Stage{"stage": timeline.RelayToDestination})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"RelayToDestination"}`, string(raw))

	var decoded map[string]timeline.Stage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, timeline.RelayToDestination, decoded["stage"])

	_, err = timeline.UnknownStage.MarshalText()
	require.Error(t, err)

	_, err = timeline.ParseStage("Teleporting")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
