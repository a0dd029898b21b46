package spectrum

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

func testID(b byte) universe.ID {
	var id universe.ID
	id[0] = b
	return id
}

func TestSpectrum(t *testing.T) {
	t.Parallel()

	t.Run("credit creates accounts with stable indices", func(t *testing.T) {
		t.Parallel()
		s := New()

		_, ok := s.SpectrumIndex(testID(1))
		require.False(t, ok)

		s.IncreaseEnergy(testID(1), 100)
		idx, ok := s.SpectrumIndex(testID(1))
		require.True(t, ok)
		require.EqualValues(t, 100, s.Energy(idx))

		s.IncreaseEnergy(testID(1), 50)
		again, ok := s.SpectrumIndex(testID(1))
		require.True(t, ok)
		require.Equal(t, idx, again)
		require.EqualValues(t, 150, s.Energy(idx))
	})

	t.Run("debit refuses overdraft", func(t *testing.T) {
		t.Parallel()
		s := New()
		s.IncreaseEnergy(testID(1), 100)
		idx, _ := s.SpectrumIndex(testID(1))

		require.False(t, s.DecreaseEnergy(idx, 101))
		require.EqualValues(t, 100, s.Energy(idx))
		require.True(t, s.DecreaseEnergy(idx, 100))
		require.EqualValues(t, 0, s.Energy(idx))
	})

	t.Run("transfer conserves total energy", func(t *testing.T) {
		t.Parallel()
		s := New()
		s.IncreaseEnergy(testID(1), 100)

		require.True(t, s.Transfer(testID(1), testID(2), 40))
		require.EqualValues(t, 60, s.Balance(testID(1)))
		require.EqualValues(t, 40, s.Balance(testID(2)))
		require.EqualValues(t, 100, s.TotalEnergy())

		require.False(t, s.Transfer(testID(1), testID(2), 61))
		require.False(t, s.Transfer(testID(3), testID(1), 1))
	})

	t.Run("out of range index", func(t *testing.T) {
		t.Parallel()
		s := New()
		require.EqualValues(t, 0, s.Energy(3))
		require.False(t, s.DecreaseEnergy(3, 1))
	})
}
