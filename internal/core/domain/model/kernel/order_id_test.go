package kernel_test

import (
	"strings"
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "mongo object id", input: "665f1c2ab4d1e3a9c0f12345"},
		{name: "uuid", input: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "timestamp", input: "1717000000000"},
		{name: "max length", input: strings.Repeat("a", kernel.OrderIDMaxLength)},
		{name: "empty", input: "", wantErr: errs.ErrValueIsRequired},
		{name: "too long", input: strings.Repeat("a", kernel.OrderIDMaxLength+1), wantErr: errs.ErrValueIsOutOfRange},
		{name: "contains space", input: "order 42", wantErr: errs.ErrValueIsInvalid},
		{name: "contains newline", input: "order\n42", wantErr: errs.ErrValueIsInvalid},
		{name: "invalid utf8", input: "order\xff", wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := kernel.NewOrderID(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, id.Validate())
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestGenerateOrderID(t *testing.T) {
	a := kernel.GenerateOrderID()
	b := kernel.GenerateOrderID()

	require.NoError(t, a.Validate())
	assert.False(t, a.IsEqual(b))

	_, err := uuid.Parse(a.String())
	require.NoError(t, err, "generated ids are UUID strings")
}

func TestOrderID_ZeroValue(t *testing.T) {
	var id kernel.OrderID
	require.ErrorIs(t, id.Validate(), kernel.ErrOrderIDIsNotConstructed)
}
