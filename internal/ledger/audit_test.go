package ledger

import (
	"database/sql"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"election-ledger/internal/database"
	"election-ledger/pkg/logger"
)

func newSigningService(t *testing.T) (*Service, *testClock) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := New(db, logger.NewLogger("error", ""), hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	clock := newTestClock()
	svc.SetClock(clock.Now)
	return svc, clock
}

func TestAuditTrail(t *testing.T) {
	svc, clock := newTestService(t)
	election, _ := seedActiveElection(t, svc, clock, 1)

	t.Run("entries appear in insertion order with monotonic ids", func(t *testing.T) {
		entries, err := svc.AuditTrail(auditorActor, election.ID, "", 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(entries), 3)

		actions := make([]string, len(entries))
		for i, e := range entries {
			actions[i] = e.Action
			if i > 0 {
				assert.Greater(t, e.ID, entries[i-1].ID)
			}
			assert.NotEmpty(t, e.EntryHash)
		}
		assert.Equal(t, []string{"election_created", "candidate_registered", "election_activated"}, actions[:3])
	})

	t.Run("action filter", func(t *testing.T) {
		entries, err := svc.AuditTrail(auditorActor, election.ID, "election_created", 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, authorityActor.Principal, entries[0].Actor)
	})

	t.Run("unsigned entries still verify by hash", func(t *testing.T) {
		entries, err := svc.AuditTrail(auditorActor, election.ID, "", 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		ok, signer, err := svc.VerifyAuditEntry(auditorActor, entries[0])
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, signer)
	})
}

func TestAppendAuditEntry(t *testing.T) {
	svc, clock := newTestService(t)
	election, _ := seedActiveElection(t, svc, clock, 1)

	t.Run("records a collaborator observation", func(t *testing.T) {
		entry, err := svc.AppendAuditEntry(auditorActor, election.ID,
			"identity_attested", "session attested by identity layer", "0xabc123")
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.NotEmpty(t, entry.EntryHash)
		assert.Contains(t, entry.Details, "data_hash=0xabc123")

		entries, err := svc.AuditTrail(auditorActor, election.ID, "identity_attested", 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auditorActor.Principal, entries[0].Actor)

		ok, _, err := svc.VerifyAuditEntry(auditorActor, entries[0])
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("election reference is optional", func(t *testing.T) {
		entry, err := svc.AppendAuditEntry(auditorActor, "",
			"proof_replayed", "external verifier replayed inclusion proof", "")
		require.NoError(t, err)
		assert.Empty(t, entry.ElectionID)
		assert.Equal(t, "external verifier replayed inclusion proof", entry.Details)
	})

	t.Run("action is required", func(t *testing.T) {
		_, err := svc.AppendAuditEntry(auditorActor, "", "", "note", "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown election", func(t *testing.T) {
		_, err := svc.AppendAuditEntry(auditorActor, "missing", "identity_attested", "", "")
		assert.ErrorIs(t, err, ErrElectionNotFound)
	})

	t.Run("requires the auditor capability", func(t *testing.T) {
		_, err := svc.AppendAuditEntry(nodeActor, election.ID, "identity_attested", "", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuditSigning(t *testing.T) {
	svc, clock := newSigningService(t)

	start := clock.Now().Add(time.Hour)
	_, err := svc.CreateElection(authorityActor, "Signed", "", start, start.Add(time.Hour))
	require.NoError(t, err)

	entries, err := svc.AuditTrail(auditorActor, "", "election_created", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	require.NotEmpty(t, entry.Signature)

	t.Run("signature recovers the configured signer", func(t *testing.T) {
		ok, signer, err := svc.VerifyAuditEntry(auditorActor, entry)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, svc.SignerAddress(), signer)
	})

	t.Run("tampered entry fails verification", func(t *testing.T) {
		tampered := *entry
		tampered.Details = "doctored"
		ok, _, err := svc.VerifyAuditEntry(auditorActor, &tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAuditReports(t *testing.T) {
	svc, clock := newTestService(t)
	election, _ := seedActiveElection(t, svc, clock, 1)

	t.Run("reports only against completed elections", func(t *testing.T) {
		_, err := svc.FileReport(auditorActor, election.ID, "too early", "", "")
		assert.ErrorIs(t, err, ErrElectionNotCompleted)
	})

	completeElection(t, svc, clock, election)

	report, err := svc.FileReport(auditorActor, election.ID, "ledger consistent", "no findings", "s3://audits/2026/report-1")
	require.NoError(t, err)
	assert.False(t, report.Approved)
	assert.Equal(t, auditorActor.Principal, report.Auditor)
	assert.NotEmpty(t, report.ReportHash)
	assert.Equal(t, "s3://audits/2026/report-1", report.ArchiveRef)

	t.Run("approval requires an auditor and is one-shot", func(t *testing.T) {
		_, err := svc.ApproveReport(authorityActor, report.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)

		approved, err := svc.ApproveReport(auditorActor, report.ID)
		require.NoError(t, err)
		assert.True(t, approved.Approved)
		assert.Equal(t, auditorActor.Principal, approved.ApprovedBy)
		require.NotNil(t, approved.ApprovedAt)

		_, err = svc.ApproveReport(auditorActor, report.ID)
		assert.ErrorIs(t, err, ErrReportAlreadyApproved)
	})

	t.Run("listing and lookup", func(t *testing.T) {
		reports, err := svc.ListReports(auditorActor, election.ID)
		require.NoError(t, err)
		require.Len(t, reports, 1)

		got, err := svc.GetReport(auditorActor, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)

		_, err = svc.GetReport(auditorActor, "missing")
		assert.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("summary required", func(t *testing.T) {
		_, err := svc.FileReport(auditorActor, election.ID, "", "findings without summary", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestEvents(t *testing.T) {
	svc, clock := newTestService(t)

	var events []Event
	svc.OnEvent(func(e Event) { events = append(events, e) })

	election, candidates := seedActiveElection(t, svc, clock, 1)
	registerVoters(t, svc, 1)

	_, err := svc.CastVote(nodeActor, CastVoteRequest{
		ElectionID:       election.ID,
		CandidateID:      candidates[0].ID,
		VoterPrincipal:   "voter-1",
		Nullifier:        testNullifier("voter-1"),
		EncryptedPayload: []byte("ballot"),
		ZKProof:          []byte("proof"),
	})
	require.NoError(t, err)

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	assert.Equal(t, []string{"election_created", "candidate_registered", "election_activated", "vote_cast"}, types)
}
