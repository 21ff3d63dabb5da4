package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUID(t *testing.T) {
	want := uuid.New()

	got, err := ParseUUID(" " + want.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseUUID("not-a-uuid")
	assert.Error(t, err)

	_, err = ParseUUID(uuid.Nil.String())
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, "a"))
}
