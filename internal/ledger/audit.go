package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
)

// buildAuditEntry constructs a trail entry carrying a Keccak256 hash
// of its canonical form and, when a signing key is configured, an
// ECDSA signature over that hash.
func (s *Service) buildAuditEntry(action, actor, electionID, details string) *database.AuditLog {
	entry := &database.AuditLog{
		Action:     action,
		Actor:      actor,
		ElectionID: electionID,
		Details:    details,
		CreatedAt:  s.now(),
	}

	canonical := fmt.Sprintf("%s|%s|%s|%s|%d",
		entry.Action, entry.Actor, entry.ElectionID, entry.Details,
		entry.CreatedAt.UnixNano())
	hash := crypto.Keccak256([]byte(canonical))
	entry.EntryHash = hexutil.Encode(hash)

	if s.signer != nil {
		if sig, err := crypto.Sign(hash, s.signer); err == nil {
			entry.Signature = hexutil.Encode(sig)
		} else {
			s.log.Error("Failed to sign audit entry: %v", err)
		}
	}

	return entry
}

// appendAudit writes an entry to the append-only audit trail.
// Audit failures are logged but never fail the operation they record.
func (s *Service) appendAudit(action, actor, electionID, details string) {
	entry := s.buildAuditEntry(action, actor, electionID, details)

	if err := s.audit.AppendLog(entry); err != nil {
		s.log.Error("Failed to append audit entry for %s: %v", action, err)
		return
	}

	s.log.AuditLogger(action, actor, details)
}

// AppendAuditEntry records a collaborator-supplied observation on the
// audit trail, such as an identity attestation or an external proof
// check. The entry is hashed and signed with the service key like
// every core-authored entry; the caller's data hash is folded into
// the entry content so the seal covers it. Unlike core appends, a
// failed write is reported to the caller.
func (s *Service) AppendAuditEntry(actor Actor, electionID, action, description, dataHash string) (*database.AuditLog, error) {
	if err := s.authorize(actor, CapAuditor, "append_audit_entry", electionID); err != nil {
		return nil, err
	}
	if action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if electionID != "" {
		if _, err := s.getElection(electionID); err != nil {
			return nil, err
		}
	}

	details := description
	if dataHash != "" {
		details = strings.TrimSpace(details + " data_hash=" + dataHash)
	}

	entry := s.buildAuditEntry(action, actor.Principal, electionID, details)
	if err := s.audit.AppendLog(entry); err != nil {
		return nil, err
	}

	s.log.AuditLogger(action, actor.Principal, details)
	return entry, nil
}

// AuditTrail returns audit entries in insertion order, optionally
// filtered by election and action. Requires the auditor capability.
func (s *Service) AuditTrail(actor Actor, electionID, action string, limit int) ([]*database.AuditLog, error) {
	if err := s.authorize(actor, CapAuditor, "audit_trail", electionID); err != nil {
		return nil, err
	}

	return s.audit.ListLogs(electionID, action, limit)
}

// VerifyAuditEntry recomputes an entry's hash from its stored fields
// and, when the entry is signed, recovers the signer address from the
// signature. It returns the recovered address so auditors can match it
// against the published signing identity.
func (s *Service) VerifyAuditEntry(actor Actor, entry *database.AuditLog) (bool, string, error) {
	if err := s.authorize(actor, CapAuditor, "verify_audit_entry", entry.ElectionID); err != nil {
		return false, "", err
	}

	canonical := fmt.Sprintf("%s|%s|%s|%s|%d",
		entry.Action, entry.Actor, entry.ElectionID, entry.Details,
		entry.CreatedAt.UnixNano())
	hash := crypto.Keccak256([]byte(canonical))

	if entry.EntryHash != hexutil.Encode(hash) {
		return false, "", nil
	}
	if entry.Signature == "" {
		return true, "", nil
	}

	sig, err := hexutil.Decode(entry.Signature)
	if err != nil {
		return false, "", fmt.Errorf("%w: malformed signature", ErrValidation)
	}
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false, "", nil
	}

	return true, crypto.PubkeyToAddress(*pub).Hex(), nil
}

// SignerAddress returns the address of the configured audit signing
// key, or the zero address when entries are unsigned.
func (s *Service) SignerAddress() string {
	if s.signer == nil {
		return (common.Address{}).Hex()
	}
	return crypto.PubkeyToAddress(s.signer.PublicKey).Hex()
}

// FileReport files an auditor report against a completed election.
// The report hash binds the report content to the election's sealed
// root, so a report cannot be quietly edited after approval.
func (s *Service) FileReport(actor Actor, electionID, summary, findings, archiveRef string) (*database.AuditReport, error) {
	if err := s.authorize(actor, CapAuditor, "file_report", electionID); err != nil {
		return nil, err
	}
	if summary == "" {
		return nil, fmt.Errorf("%w: report summary is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.elections.GetByID(electionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if election.Status != StatusCompleted {
		return nil, ErrElectionNotCompleted
	}

	canonical := fmt.Sprintf("%s|%s|%s|%s|%s",
		electionID, election.MerkleRoot, summary, findings, archiveRef)
	report := &database.AuditReport{
		ID:         uuid.New().String(),
		ElectionID: electionID,
		Auditor:    actor.Principal,
		Summary:    summary,
		Findings:   findings,
		ReportHash: hexutil.Encode(crypto.Keccak256([]byte(canonical))),
		ArchiveRef: archiveRef,
		CreatedAt:  s.now(),
	}
	if err := s.audit.CreateReport(report); err != nil {
		return nil, err
	}

	s.appendAudit("report_filed", actor.Principal, electionID,
		fmt.Sprintf("report=%s", report.ID))
	s.emit("report_filed", electionID, report)

	return report, nil
}

// ApproveReport marks an auditor report approved. Approval is a
// one-shot transition; a second call fails.
func (s *Service) ApproveReport(actor Actor, reportID string) (*database.AuditReport, error) {
	if err := s.authorize(actor, CapAuditor, "approve_report", ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.audit.GetReport(reportID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	if report.Approved {
		return nil, ErrReportAlreadyApproved
	}

	approvedAt := s.now()
	if err := s.audit.ApproveReport(reportID, actor.Principal, approvedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReportAlreadyApproved
		}
		return nil, err
	}

	report.Approved = true
	report.ApprovedBy = actor.Principal
	report.ApprovedAt = &approvedAt

	s.appendAudit("report_approved", actor.Principal, report.ElectionID,
		fmt.Sprintf("report=%s auditor=%s", report.ID, report.Auditor))
	s.emit("report_approved", report.ElectionID, report)

	return report, nil
}

// GetReport retrieves an auditor report
func (s *Service) GetReport(actor Actor, reportID string) (*database.AuditReport, error) {
	if err := s.authorize(actor, CapAuditor, "get_report", ""); err != nil {
		return nil, err
	}

	report, err := s.audit.GetReport(reportID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	return report, err
}

// ListReports retrieves the auditor reports filed against an election
func (s *Service) ListReports(actor Actor, electionID string) ([]*database.AuditReport, error) {
	if err := s.authorize(actor, CapAuditor, "list_reports", electionID); err != nil {
		return nil, err
	}

	return s.audit.ListReports(electionID)
}
