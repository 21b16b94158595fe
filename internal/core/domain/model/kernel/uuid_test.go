package kernel_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	id1 := kernel.NewUUID()
	id2 := kernel.NewUUID()

	require.NoError(t, id1.Validate())
	assert.NotEqual(t, uuid.Nil.String(), id1.String())
	assert.False(t, id1.IsEqual(id2))
}

func TestNewUUIDFromName(t *testing.T) {
	ns := kernel.MustUUIDFromString("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	t.Run("is stable for the same name", func(t *testing.T) {
		assert.True(t, kernel.NewUUIDFromName(ns, "F1").IsEqual(kernel.NewUUIDFromName(ns, "F1")))
	})

	t.Run("differs between names", func(t *testing.T) {
		assert.False(t, kernel.NewUUIDFromName(ns, "F1").IsEqual(kernel.NewUUIDFromName(ns, "F2")))
	})

	t.Run("differs between namespaces", func(t *testing.T) {
		other := kernel.MustUUIDFromString("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
		assert.False(t, kernel.NewUUIDFromName(ns, "F1").IsEqual(kernel.NewUUIDFromName(other, "F1")))
	})

	t.Run("is a version 5 UUID", func(t *testing.T) {
		assert.Equal(t, uuid.Version(5), kernel.NewUUIDFromName(ns, "R1").Bytes().Version())
	})
}

func TestUUIDFromString(t *testing.T) {
	valid := "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "canonical", input: valid},
		{name: "braced", input: "{" + valid + "}"},
		{name: "urn", input: "urn:uuid:" + valid},
		{name: "garbage", input: "not-a-uuid", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "nil uuid", input: uuid.Nil.String(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := kernel.UUIDFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, id.String())
		})
	}
}

func TestUUIDFromBytes(t *testing.T) {
	original := kernel.NewUUID()
	raw := original.Bytes()

	restored, err := kernel.UUIDFromBytes(raw[:])
	require.NoError(t, err)
	assert.True(t, original.IsEqual(restored))

	_, err = kernel.UUIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)

	_, err = kernel.UUIDFromBytes(make([]byte, 16))
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestUUID_Validate(t *testing.T) {
	var zero kernel.UUID
	require.ErrorIs(t, zero.Validate(), kernel.ErrUUIDIsNotConstructed)
}
