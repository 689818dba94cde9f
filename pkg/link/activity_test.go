package link

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_AppendsInOrder(t *testing.T) {
	a := NewActivity(10)
	a.Add(LevelInfo, "first")
	a.Add(LevelError, "second: %d", 2)

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second: 2", entries[1].Message)
	assert.Equal(t, LevelError, entries[1].Level)
}

func TestActivity_Bounded(t *testing.T) {
	a := NewActivity(3)
	for i := 0; i < 10; i++ {
		a.Add(LevelInfo, "entry %d", i)
	}

	entries := a.Entries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("entry %d", 7+i), e.Message)
	}
}

func TestActivity_EntriesIsCopy(t *testing.T) {
	a := NewActivity(5)
	a.Add(LevelInfo, "one")

	got := a.Entries()
	got[0].Message = "mutated"
	assert.Equal(t, "one", a.Entries()[0].Message)
}
