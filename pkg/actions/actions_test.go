package actions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

func TestTracker(t *testing.T) {
	t.Parallel()

	t.Run("refuses beyond capacity", func(t *testing.T) {
		t.Parallel()
		tr, err := NewTracker(2)
		require.NoError(t, err)

		require.True(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 1}))
		require.True(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 2}))
		require.False(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 3}))
		require.Len(t, tr.Transfers(), 2)
	})

	t.Run("reset reopens capacity", func(t *testing.T) {
		t.Parallel()
		tr, err := NewTracker(1)
		require.NoError(t, err)

		require.True(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 1}))
		require.False(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 2}))
		tr.Reset()
		require.True(t, tr.AddQuTransfer(universe.QuTransfer{Amount: 2}))
	})

	t.Run("logging counts", func(t *testing.T) {
		t.Parallel()
		tr, err := NewTracker(1)
		require.NoError(t, err)

		tr.LogQuTransfer(universe.QuTransfer{Amount: 1})
		tr.LogQuTransfer(universe.QuTransfer{Amount: 2})
		require.EqualValues(t, 2, tr.TotalLogged())
	})

	t.Run("invalid capacity", func(t *testing.T) {
		t.Parallel()
		_, err := NewTracker(0)
		require.Error(t, err)
	})
}
