package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCandidate(t *testing.T) {
	t.Run("registers in draft", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedDraftElection(t, svc, clock, 0)

		c, err := svc.RegisterCandidate(authorityActor, election.ID, "Alice", "Green", 1)
		require.NoError(t, err)
		assert.True(t, c.Active)
		assert.Zero(t, c.VoteCount)

		list, err := svc.ListCandidates(election.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("registers while active", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedActiveElection(t, svc, clock, 1)

		c, err := svc.RegisterCandidate(authorityActor, election.ID, "Late Entry", "Indie", 9)
		require.NoError(t, err)
		assert.True(t, c.Active)
	})

	t.Run("rejected after completion", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedActiveElection(t, svc, clock, 1)
		completeElection(t, svc, clock, election)

		_, err := svc.RegisterCandidate(authorityActor, election.ID, "Too Late", "", 9)
		assert.ErrorIs(t, err, ErrElectionCompleted)
	})

	t.Run("duplicate ballot number rejected", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedDraftElection(t, svc, clock, 0)

		_, err := svc.RegisterCandidate(authorityActor, election.ID, "Alice", "Green", 1)
		require.NoError(t, err)
		_, err = svc.RegisterCandidate(authorityActor, election.ID, "Bob", "Blue", 1)
		assert.ErrorIs(t, err, ErrDuplicateBallotNumber)
	})

	t.Run("withdrawn ballot number can be reused", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedDraftElection(t, svc, clock, 0)

		alice, err := svc.RegisterCandidate(authorityActor, election.ID, "Alice", "Green", 1)
		require.NoError(t, err)
		_, err = svc.DeactivateCandidate(authorityActor, election.ID, alice.ID)
		require.NoError(t, err)

		_, err = svc.RegisterCandidate(authorityActor, election.ID, "Bob", "Blue", 1)
		assert.NoError(t, err)
	})

	t.Run("input validation", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, _ := seedDraftElection(t, svc, clock, 0)

		_, err := svc.RegisterCandidate(authorityActor, election.ID, "", "Green", 1)
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.RegisterCandidate(authorityActor, election.ID, "Alice", "Green", 0)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeactivateCandidate(t *testing.T) {
	t.Run("deactivation keeps recorded votes", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 2)
		voters := registerVoters(t, svc, 2)

		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   voters[0],
			Nullifier:        testNullifier(voters[0]),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)

		withdrawn, err := svc.DeactivateCandidate(authorityActor, election.ID, candidates[0].ID)
		require.NoError(t, err)
		assert.False(t, withdrawn.Active)

		// The withdrawn candidate no longer accepts votes
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   voters[1],
			Nullifier:        testNullifier(voters[1]),
			EncryptedPayload: []byte("ciphertext"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrInvalidCandidate)

		// The earlier vote stays in the tally
		stats, err := svc.Stats(election.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TotalVotes)
		assert.Equal(t, int64(1), stats.Tallies[0].VoteCount)
	})

	t.Run("rejected after completion", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 1)
		completeElection(t, svc, clock, election)

		_, err := svc.DeactivateCandidate(authorityActor, election.ID, candidates[0].ID)
		assert.ErrorIs(t, err, ErrElectionCompleted)
	})

	t.Run("candidate must belong to the election", func(t *testing.T) {
		svc, clock := newTestService(t)
		_, candidatesA := seedActiveElection(t, svc, clock, 1)

		electionB, _ := seedDraftElection(t, svc, clock, 0)

		_, err := svc.DeactivateCandidate(authorityActor, electionB.ID, candidatesA[0].ID)
		assert.ErrorIs(t, err, ErrCandidateNotFound)

		_, err = svc.GetCandidate(electionB.ID, candidatesA[0].ID)
		assert.ErrorIs(t, err, ErrCandidateNotFound)
	})
}
