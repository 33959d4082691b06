package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"election-ledger/internal/merkle"
)

func TestCastVote(t *testing.T) {
	t.Run("admits a valid vote", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 2)
		registerVoters(t, svc, 1)

		vote, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("voter-1"),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, vote.ID)
		assert.False(t, vote.Verified)

		refreshed, err := svc.GetElection(election.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), refreshed.TotalVotes)
	})

	t.Run("missing zk proof is rejected", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("voter-1"),
			EncryptedPayload: []byte("ballot"),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("uppercase nullifier is normalized", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		vote, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        strings.ToUpper(testNullifier("voter-1")),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)
		assert.Equal(t, testNullifier("voter-1"), vote.Nullifier)
	})

	t.Run("second vote by same voter rejected", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 2)
		registerVoters(t, svc, 1)

		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("first"),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)

		// Different candidate and fresh nullifier: still refused
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[1].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("second"),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrAlreadyVoted)
	})

	t.Run("nullifier uniqueness is global", func(t *testing.T) {
		svc, clock := newTestService(t)
		electionA, candidatesA := seedActiveElection(t, svc, clock, 1)
		electionB, candidatesB := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		shared := testNullifier("shared")
		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       electionA.ID,
			CandidateID:      candidatesA[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        shared,
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)

		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       electionB.ID,
			CandidateID:      candidatesB[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        shared,
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrNullifierReused)
	})

	t.Run("votes only while active and inside the window", func(t *testing.T) {
		svc, clock := newTestService(t)

		draft, _ := seedDraftElection(t, svc, clock, 1)
		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID: draft.ID, CandidateID: "c", VoterPrincipal: "v",
			Nullifier: testNullifier("n"), ZKProof: []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrElectionNotActive)

		election, candidates := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		// Active status alone is not enough once the window has closed
		clock.Advance(48 * time.Hour)
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("late"),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrElectionNotActive)

		completeElection(t, svc, clock, election)
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("later"),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrElectionNotActive)
	})

	t.Run("precondition order is fixed", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		// Unknown candidate outranks unregistered voter
		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:     election.ID,
			CandidateID:    "missing",
			VoterPrincipal: "unregistered",
			Nullifier:      "???",
			ZKProof:        []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrInvalidCandidate)

		// Unregistered voter outranks bad nullifier
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:     election.ID,
			CandidateID:    candidates[0].ID,
			VoterPrincipal: "unregistered",
			Nullifier:      "???",
			ZKProof:        []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrVoterNotEligible)

		// Nullifier format is the last check
		_, err = svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:     election.ID,
			CandidateID:    candidates[0].ID,
			VoterPrincipal: "voter-1",
			Nullifier:      "not-hex",
			ZKProof:        []byte("proof"),
		})
		assert.ErrorIs(t, err, ErrInvalidNullifier)
	})

	t.Run("rejections are audited", func(t *testing.T) {
		svc, clock := newTestService(t)
		election, candidates := seedActiveElection(t, svc, clock, 1)
		registerVoters(t, svc, 1)

		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:     election.ID,
			CandidateID:    candidates[0].ID,
			VoterPrincipal: "voter-1",
			Nullifier:      "bogus",
			ZKProof:        []byte("proof"),
		})
		require.ErrorIs(t, err, ErrInvalidNullifier)

		entries, err := svc.AuditTrail(auditorActor, election.ID, "vote_rejected_invalid_nullifier", 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Details, "voter-1")
	})
}

func TestVerifyVote(t *testing.T) {
	svc, clock := newTestService(t)
	election, candidates := seedActiveElection(t, svc, clock, 1)
	registerVoters(t, svc, 1)

	vote, err := svc.CastVote(nodeActor, CastVoteRequest{
		ElectionID:       election.ID,
		CandidateID:      candidates[0].ID,
		VoterPrincipal:   "voter-1",
		Nullifier:        testNullifier("voter-1"),
		EncryptedPayload: []byte("ballot"),
		ZKProof:          []byte("proof"),
	})
	require.NoError(t, err)

	t.Run("auditor marks the proof checked", func(t *testing.T) {
		verified, err := svc.VerifyVote(auditorActor, election.ID, vote.ID)
		require.NoError(t, err)
		assert.True(t, verified.Verified)

		stored, err := svc.GetVote(auditorActor, election.ID, vote.ID)
		require.NoError(t, err)
		assert.True(t, stored.Verified)

		entries, err := svc.AuditTrail(auditorActor, election.ID, "vote_verified", 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("requires auditor", func(t *testing.T) {
		_, err := svc.VerifyVote(authorityActor, election.ID, vote.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown vote", func(t *testing.T) {
		_, err := svc.VerifyVote(auditorActor, election.ID, "missing")
		assert.ErrorIs(t, err, ErrVoteNotFound)
	})
}

func TestVoteConservation(t *testing.T) {
	svc, clock := newTestService(t)
	election, candidates := seedActiveElection(t, svc, clock, 3)
	voters := registerVoters(t, svc, 10)

	for i, p := range voters {
		_, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[i%3].ID,
			VoterPrincipal:   p,
			Nullifier:        testNullifier(p),
			EncryptedPayload: []byte("ballot"),
			ZKProof:          []byte("proof"),
		})
		require.NoError(t, err)
	}

	// Replay attempts must not disturb the tally
	_, err := svc.CastVote(nodeActor, CastVoteRequest{
		ElectionID:       election.ID,
		CandidateID:      candidates[0].ID,
		VoterPrincipal:   voters[0],
		Nullifier:        testNullifier("fresh"),
		EncryptedPayload: []byte("ballot"),
		ZKProof:          []byte("proof"),
	})
	require.ErrorIs(t, err, ErrAlreadyVoted)

	stats, err := svc.Stats(election.ID)
	require.NoError(t, err)

	var sum int64
	for _, tally := range stats.Tallies {
		sum += tally.VoteCount
	}
	assert.Equal(t, stats.TotalVotes, sum, "total must equal sum of candidate tallies")
	assert.Equal(t, int64(10), stats.TotalVotes)

	votes, err := svc.ListVotes(auditorActor, election.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 10)
}

func TestConcurrentCast(t *testing.T) {
	svc, clock := newTestService(t)
	election, candidates := seedActiveElection(t, svc, clock, 2)
	registerVoters(t, svc, 1)

	// Two simultaneous casts for the same voter with distinct
	// nullifiers: exactly one may win
	requests := []CastVoteRequest{
		{
			ElectionID:       election.ID,
			CandidateID:      candidates[0].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("first"),
			EncryptedPayload: []byte("ballot-a"),
			ZKProof:          []byte("proof-a"),
		},
		{
			ElectionID:       election.ID,
			CandidateID:      candidates[1].ID,
			VoterPrincipal:   "voter-1",
			Nullifier:        testNullifier("second"),
			EncryptedPayload: []byte("ballot-b"),
			ZKProof:          []byte("proof-b"),
		},
	}

	var wg sync.WaitGroup
	results := make([]error, len(requests))
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req CastVoteRequest) {
			defer wg.Done()
			_, results[i] = svc.CastVote(nodeActor, req)
		}(i, req)
	}
	wg.Wait()

	admitted, rejected := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrAlreadyVoted):
			rejected++
		default:
			t.Fatalf("unexpected cast error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, rejected)

	refreshed, err := svc.GetElection(election.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshed.TotalVotes)
}

func TestVoteProofs(t *testing.T) {
	svc, clock := newTestService(t)
	election, candidates := seedActiveElection(t, svc, clock, 2)
	voters := registerVoters(t, svc, 5)

	votes := make([]string, 0, len(voters))
	for i, p := range voters {
		vote, err := svc.CastVote(nodeActor, CastVoteRequest{
			ElectionID:       election.ID,
			CandidateID:      candidates[i%2].ID,
			VoterPrincipal:   p,
			Nullifier:        testNullifier(p),
			EncryptedPayload: []byte(fmt.Sprintf("ballot-%d", i)),
			ZKProof:          []byte(fmt.Sprintf("proof-%d", i)),
		})
		require.NoError(t, err)
		votes = append(votes, vote.ID)
	}

	t.Run("no proofs before completion", func(t *testing.T) {
		_, err := svc.ProveVote(auditorActor, election.ID, votes[0])
		assert.ErrorIs(t, err, ErrElectionNotCompleted)
	})

	completed := completeElection(t, svc, clock, election)
	require.NotEmpty(t, completed.MerkleRoot)

	t.Run("every vote proves against the sealed root", func(t *testing.T) {
		for _, voteID := range votes {
			proof, err := svc.ProveVote(auditorActor, election.ID, voteID)
			require.NoError(t, err)
			assert.Equal(t, completed.MerkleRoot, proof.Root)

			ok, err := svc.VerifyProof(election.ID, proof.LeafHash, proof.Proof)
			require.NoError(t, err)
			assert.True(t, ok, "vote %s", voteID)
		}
	})

	t.Run("foreign leaf fails verification", func(t *testing.T) {
		proof, err := svc.ProveVote(auditorActor, election.ID, votes[0])
		require.NoError(t, err)

		forged := fmt.Sprintf("%x", merkle.HashLeaf([]byte("forged")))
		ok, err := svc.VerifyProof(election.ID, forged, proof.Proof)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown vote", func(t *testing.T) {
		_, err := svc.ProveVote(auditorActor, election.ID, "missing")
		assert.ErrorIs(t, err, ErrVoteNotFound)
	})
}
