package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qubicnetwork/go-universe/pkg/spectrum"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

func testID(b byte) universe.ID {
	var id universe.ID
	id[0] = b
	return id
}

type recordingHooks struct {
	approve bool
	pres    int
	posts   int
}

func (h *recordingHooks) PreAcquireShares(universe.RightsTransferInput) bool { h.pres++; return h.approve }
func (h *recordingHooks) PostAcquireShares(universe.RightsTransferInput)     { h.posts++ }
func (h *recordingHooks) PreReleaseShares(universe.RightsTransferInput) bool { h.pres++; return h.approve }
func (h *recordingHooks) PostReleaseShares(universe.RightsTransferInput)     { h.posts++ }

func TestRegistry(t *testing.T) {
	t.Parallel()

	newRegistry := func(t *testing.T, approve bool) (*Registry, *spectrum.Spectrum, *recordingHooks) {
		t.Helper()
		s := spectrum.New()
		r := New(s)
		hooks := &recordingHooks{approve: approve}

		qxName, err := universe.PackAssetName("QX")
		require.NoError(t, err)

		require.EqualValues(t, 0, r.Register(ContractDescription{ID: testID(200), AssetName: qxName, Hooks: hooks}))
		require.EqualValues(t, 1, r.Register(ContractDescription{ID: testID(201), Hooks: hooks}))
		return r, s, hooks
	}

	t.Run("call context", func(t *testing.T) {
		t.Parallel()
		r, _, _ := newRegistry(t, true)

		cc, err := r.CallContext(0, testID(9), 10)
		require.NoError(t, err)
		require.Equal(t, testID(200), cc.ContractID)
		require.Equal(t, testID(9), cc.Invocator)
		require.EqualValues(t, 10, cc.InvocationReward)

		_, err = r.CallContext(7, testID(9), 0)
		require.ErrorIs(t, err, ErrUnknownContract)
	})

	t.Run("pre hook moves the reward", func(t *testing.T) {
		t.Parallel()
		r, s, hooks := newRegistry(t, true)
		s.IncreaseEnergy(testID(200), 100)

		ok, err := r.CallSystemProcedure(0, 1, universe.PreAcquireShares, universe.RightsTransferInput{}, 10)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1, hooks.pres)
		require.EqualValues(t, 90, s.Balance(testID(200)))
		require.EqualValues(t, 10, s.Balance(testID(201)))
	})

	t.Run("unfunded caller is vetoed without consulting the callee", func(t *testing.T) {
		t.Parallel()
		r, _, hooks := newRegistry(t, true)

		ok, err := r.CallSystemProcedure(0, 1, universe.PreAcquireShares, universe.RightsTransferInput{}, 10)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, hooks.pres)
	})

	t.Run("post hook carries no reward", func(t *testing.T) {
		t.Parallel()
		r, s, hooks := newRegistry(t, false)

		ok, err := r.CallSystemProcedure(0, 1, universe.PostAcquireShares, universe.RightsTransferInput{}, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1, hooks.posts)
		require.Zero(t, s.Balance(testID(201)))
	})

	t.Run("veto propagates", func(t *testing.T) {
		t.Parallel()
		r, _, _ := newRegistry(t, false)

		ok, err := r.CallSystemProcedure(0, 1, universe.PreReleaseShares, universe.RightsTransferInput{}, 0)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unknown callee", func(t *testing.T) {
		t.Parallel()
		r, _, _ := newRegistry(t, true)
		_, err := r.CallSystemProcedure(0, 9, universe.PreAcquireShares, universe.RightsTransferInput{}, 0)
		require.ErrorIs(t, err, ErrUnknownContract)
	})
}
