package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVoter(t *testing.T) {
	t.Run("registers once on the global roll", func(t *testing.T) {
		svc, _ := newTestService(t)

		voter, err := svc.RegisterVoter(authorityActor, "alice")
		require.NoError(t, err)
		assert.True(t, voter.Eligible)
		assert.Equal(t, authorityActor.Principal, voter.RegisteredBy)

		_, err = svc.RegisterVoter(authorityActor, "alice")
		assert.ErrorIs(t, err, ErrVoterAlreadyRegistered)
	})

	t.Run("one registration covers every election", func(t *testing.T) {
		svc, clock := newTestService(t)
		a, candidatesA := seedActiveElection(t, svc, clock, 1)
		b, candidatesB := seedActiveElection(t, svc, clock, 1)

		_, err := svc.RegisterVoter(authorityActor, "alice")
		require.NoError(t, err)

		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       a.ID,
			CandidateID:      candidatesA[0].ID,
			VoterPrincipal:   "alice",
			Nullifier:        testNullifier("alice-a"),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)

		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       b.ID,
			CandidateID:      candidatesB[0].ID,
			VoterPrincipal:   "alice",
			Nullifier:        testNullifier("alice-b"),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		assert.NoError(t, err)
	})

	t.Run("empty principal rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.RegisterVoter(authorityActor, "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("requires authority", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.RegisterVoter(nodeActor, "mallory")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestSetVoterEligibility(t *testing.T) {
	svc, clock := newTestService(t)
	election, candidates := seedActiveElection(t, svc, clock, 1)
	registerVoters(t, svc, 1)

	t.Run("revocation blocks future votes", func(t *testing.T) {
		voter, err := svc.SetVoterEligibility(authorityActor, "voter-1", false)
		require.NoError(t, err)
		assert.False(t, voter.Eligible)

		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("voter-1"),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrVoterNotEligible)
	})

	t.Run("reinstatement allows voting", func(t *testing.T) {
		_, err := svc.SetVoterEligibility(authorityActor, "voter-1", true)
		require.NoError(t, err)

		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("voter-1"),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown voter", func(t *testing.T) {
		_, err := svc.SetVoterEligibility(authorityActor, "ghost", false)
		assert.ErrorIs(t, err, ErrVoterNotFound)
	})
}

func TestRemoveVoter(t *testing.T) {
	svc, _ := newTestService(t)
	registerVoters(t, svc, 1)

	require.NoError(t, svc.RemoveVoter(authorityActor, "voter-1"))

	// The record survives removal but is no longer eligible
	voter, err := svc.GetVoter(authorityActor, "voter-1")
	require.NoError(t, err)
	assert.False(t, voter.Eligible)

	eligible, err := svc.IsEligible("voter-1")
	require.NoError(t, err)
	assert.False(t, eligible)

	assert.ErrorIs(t, svc.RemoveVoter(authorityActor, "ghost"), ErrVoterNotFound)
}

func TestListVoters(t *testing.T) {
	svc, _ := newTestService(t)
	registerVoters(t, svc, 3)

	voters, err := svc.ListVoters(authorityActor)
	require.NoError(t, err)
	assert.Len(t, voters, 3)

	_, err = svc.ListVoters(nodeActor)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
