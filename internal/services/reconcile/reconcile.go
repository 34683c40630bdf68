// Package reconcile 对比台账与关系库，定位漏写、字段不一致与附件损坏。
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"hazard-report/internal/adapters/ledger"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/hash"
)

// Kind 是失败类型。
type Kind string

const (
	KindMissingInStore     Kind = "missing_in_store"
	KindMissingInLedger    Kind = "missing_in_ledger"
	KindFieldMismatch      Kind = "field_mismatch"
	KindAttachmentMismatch Kind = "attachment_mismatch"
)

// FailureItem 是一条对账失败明细（用于 CLI 展示）。
type FailureItem struct {
	Kind         Kind   `json:"kind"`
	SubmissionID string `json:"submission_id"`
	// LedgerIndex 为台账中的记录序号（不含表头，从 0 开始），不在台账中时为 -1。
	LedgerIndex int   `json:"ledger_index"`
	ReportID    int64 `json:"report_id,omitempty"`

	ExpectedFingerprint string `json:"expected_fingerprint,omitempty"`
	ActualFingerprint   string `json:"actual_fingerprint,omitempty"`

	Message string `json:"message,omitempty"`
}

// Result 是对账结果。
type Result struct {
	OK bool `json:"ok"`

	LedgerTotal int `json:"ledger_total"`
	StoreTotal  int `json:"store_total"`

	Failed             int `json:"failed"`
	MissingInStore     int `json:"missing_in_store"`
	MissingInLedger    int `json:"missing_in_ledger"`
	FieldMismatch      int `json:"field_mismatch"`
	AttachmentMismatch int `json:"attachment_mismatch"`

	Failures []FailureItem `json:"failures,omitempty"`
}

func (r *Result) add(it FailureItem) {
	r.OK = false
	r.Failed++
	switch it.Kind {
	case KindMissingInStore:
		r.MissingInStore++
	case KindMissingInLedger:
		r.MissingInLedger++
	case KindFieldMismatch:
		r.FieldMismatch++
	case KindAttachmentMismatch:
		r.AttachmentMismatch++
	}
	r.Failures = append(r.Failures, it)
}

// Fingerprint 是一条提交的字段指纹，台账与关系库按相同列序计算。
func Fingerprint(f model.Fields, attachmentFilename string) string {
	return hash.Text(append(f.Values(), attachmentFilename)...)
}

// Compare 以 SubmissionID 关联台账记录与报告行并逐条比对字段指纹。
func Compare(records []ledger.Record, reports []model.Report) Result {
	res := Result{
		OK:          true,
		LedgerTotal: len(records),
		StoreTotal:  len(reports),
		Failures:    []FailureItem{},
	}

	bySubmission := make(map[string]model.Report, len(reports))
	for _, r := range reports {
		bySubmission[r.SubmissionID] = r
	}

	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		seen[rec.SubmissionID] = true
		expected := Fingerprint(rec.Fields, rec.AttachmentFilename)

		r, ok := bySubmission[rec.SubmissionID]
		if !ok {
			res.add(FailureItem{
				Kind:                KindMissingInStore,
				SubmissionID:        rec.SubmissionID,
				LedgerIndex:         i,
				ExpectedFingerprint: expected,
				Message:             "ledger record has no matching report row",
			})
			continue
		}

		actual := Fingerprint(r.Fields, r.AttachmentFilename())
		if actual != expected {
			res.add(FailureItem{
				Kind:                KindFieldMismatch,
				SubmissionID:        rec.SubmissionID,
				LedgerIndex:         i,
				ReportID:            r.ID,
				ExpectedFingerprint: expected,
				ActualFingerprint:   actual,
				Message:             "field values differ between ledger and store",
			})
		}
	}

	for _, r := range reports {
		if seen[r.SubmissionID] {
			continue
		}
		res.add(FailureItem{
			Kind:              KindMissingInLedger,
			SubmissionID:      r.SubmissionID,
			LedgerIndex:       -1,
			ReportID:          r.ID,
			ActualFingerprint: Fingerprint(r.Fields, r.AttachmentFilename()),
			Message:           "report row has no ledger record",
		})
	}
	return res
}

// Source 是对账所需的关系库读能力。
type Source interface {
	List(ctx context.Context) ([]model.Report, error)
	GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind) (*model.StoredAttachment, error)
}

// Run 读取台账与关系库并执行完整对账：字段比对之外，还会重算每个附件槽位的 SHA-256。
func Run(ctx context.Context, ledgerPath string, src Source) (Result, error) {
	records, err := ledger.ReadAll(ledgerPath)
	if err != nil {
		return Result{}, err
	}
	reports, err := src.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list reports: %w", err)
	}

	res := Compare(records, reports)
	for _, r := range reports {
		for _, kind := range []model.AttachmentKind{model.AttachmentOriginal, model.AttachmentClosure} {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			a, err := src.GetAttachment(ctx, r.ID, kind)
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			if err != nil {
				return res, fmt.Errorf("read %s attachment of report %d: %w", kind, r.ID, err)
			}
			if actual := hash.Bytes(a.Content); actual != a.SHA256 {
				res.add(FailureItem{
					Kind:                KindAttachmentMismatch,
					SubmissionID:        r.SubmissionID,
					LedgerIndex:         -1,
					ReportID:            r.ID,
					ExpectedFingerprint: a.SHA256,
					ActualFingerprint:   actual,
					Message:             fmt.Sprintf("%s attachment %s content does not match recorded sha256", kind, a.Filename),
				})
			}
		}
	}
	return res, nil
}
