package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/pkg/logger"
)

// Change records one corrective write, old value to new, for manual audit
type Change struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

// Report summarizes one reconciliation pass. Failures never abort the
// pass; each group or record is processed independently.
type Report struct {
	DuplicateGroups    int      `json:"duplicate_groups"`
	VisitsDeleted      int64    `json:"visits_deleted"`
	VouchersReassigned int64    `json:"vouchers_reassigned"`
	DurationsRepaired  int      `json:"durations_repaired"`
	CachesRewritten    int      `json:"caches_rewritten"`
	OrphanedVouchers   []string `json:"orphaned_vouchers"`
	Changes            []Change `json:"changes"`
	Failures           []string `json:"failures"`
}

func (r *Report) addChange(entity, id, field, old, new string) {
	r.Changes = append(r.Changes, Change{Entity: entity, ID: id, Field: field, Old: old, New: new})
}

func (r *Report) addFailure(format string, args ...interface{}) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Engine repairs visit and voucher integrity in bulk: duplicate visits for
// one (event, academy) pair, implausible durations, and a stale
// vouchers_generated cache. It assumes exclusive access to the store and
// every operation is idempotent: a second pass over repaired data is a
// no-op.
type Engine struct {
	visits   repository.VisitRepository
	vouchers repository.VoucherRepository
	logger   *logger.Logger

	// DryRun computes and reports every change without writing
	DryRun bool
}

// NewEngine creates a reconciliation engine
func NewEngine(visits repository.VisitRepository, vouchers repository.VoucherRepository, logger *logger.Logger) *Engine {
	return &Engine{
		visits:   visits,
		vouchers: vouchers,
		logger:   logger,
	}
}

// Run executes the full pass: duplicates first, then durations, then the
// voucher-cache rewrite (which depends on voucher links being correct),
// then the orphan audit.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := e.ResolveDuplicates(ctx, report); err != nil {
		return report, err
	}
	if err := e.NormalizeDurations(ctx, report); err != nil {
		return report, err
	}
	if err := e.SyncVoucherCache(ctx, report); err != nil {
		return report, err
	}
	if err := e.AuditOrphans(ctx, report); err != nil {
		return report, err
	}

	e.logger.WithFields(map[string]interface{}{
		"duplicate_groups":    report.DuplicateGroups,
		"visits_deleted":      report.VisitsDeleted,
		"vouchers_reassigned": report.VouchersReassigned,
		"durations_repaired":  report.DurationsRepaired,
		"caches_rewritten":    report.CachesRewritten,
		"orphaned_vouchers":   len(report.OrphanedVouchers),
		"failures":            len(report.Failures),
		"dry_run":             e.DryRun,
	}).Info("Reconciliation pass complete")

	return report, nil
}

// ResolveDuplicates groups visits by (event, academy), keeps one survivor
// per group, reassigns the losers' vouchers to the survivor and deletes
// the losers. Vouchers are never silently dropped.
func (e *Engine) ResolveDuplicates(ctx context.Context, report *Report) error {
	visits, err := e.visits.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}

	groups := map[string][]*domain.Visit{}
	for _, visit := range visits {
		key := visit.EventID + "|" + visit.AcademyID
		groups[key] = append(groups[key], visit)
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.DuplicateGroups++

		survivor, losers := selectSurvivor(group)

		loserIDs := make([]string, 0, len(losers))
		for _, loser := range losers {
			loserIDs = append(loserIDs, loser.ID)
			report.addChange("visit", loser.ID, "deleted",
				fmt.Sprintf("status=%s", loser.Status),
				fmt.Sprintf("superseded by %s", survivor.ID))
		}

		e.logger.WithFields(map[string]interface{}{
			"group":    key,
			"size":     len(group),
			"survivor": survivor.ID,
		}).Warn("Duplicate visit group found")

		if e.DryRun {
			report.VisitsDeleted += int64(len(loserIDs))
			continue
		}

		// Reassign before delete so a failure in between leaves vouchers
		// attached to a still-existing visit
		moved, err := e.vouchers.ReassignVisit(ctx, loserIDs, survivor.ID)
		if err != nil {
			report.addFailure("group %s: reassigning vouchers: %v", key, err)
			continue
		}
		report.VouchersReassigned += moved
		if moved > 0 {
			report.addChange("voucher", key, "visit_id", "duplicate visits", survivor.ID)
		}

		deleted, err := e.visits.DeleteByIDs(ctx, loserIDs)
		if err != nil {
			report.addFailure("group %s: deleting duplicates: %v", key, err)
			continue
		}
		report.VisitsDeleted += deleted
	}

	return nil
}

// selectSurvivor orders a duplicate group: VISITED beats PENDING, then the
// most recent of finished_at, updated_at, created_at (first non-null, in
// that priority) wins. Returns the survivor and the rest.
func selectSurvivor(group []*domain.Visit) (*domain.Visit, []*domain.Visit) {
	sorted := append([]*domain.Visit(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		aVisited := a.Status == domain.VisitStatusVisited
		bVisited := b.Status == domain.VisitStatusVisited
		if aVisited != bVisited {
			return aVisited
		}
		return effectiveTime(a).After(effectiveTime(b))
	})
	return sorted[0], sorted[1:]
}

func effectiveTime(v *domain.Visit) time.Time {
	if v.FinishedAt != nil {
		return *v.FinishedAt
	}
	if !v.UpdatedAt.IsZero() {
		return v.UpdatedAt
	}
	return v.CreatedAt
}

// NormalizeDurations repairs implausible visit durations: near-zero
// durations become 30 minutes, date rollovers are rebuilt backwards from
// the finish time, and anything over the 65-minute cap is clamped to 60
// and forced VISITED.
func (e *Engine) NormalizeDurations(ctx context.Context, report *Report) error {
	visits, err := e.visits.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}

	for _, visit := range visits {
		if visit.StartedAt == nil || visit.FinishedAt == nil {
			continue
		}

		newStart, newFinish, rule := NormalizeDuration(*visit.StartedAt, *visit.FinishedAt)
		if rule == RuleNone {
			continue
		}

		status := visit.Status
		if rule == RuleCap {
			status = domain.VisitStatusVisited
		}

		oldDur := visit.FinishedAt.Sub(*visit.StartedAt)
		e.logger.WithFields(map[string]interface{}{
			"visit_id":     visit.ID,
			"rule":         string(rule),
			"old_duration": oldDur.String(),
			"new_duration": newFinish.Sub(newStart).String(),
		}).Info("Repairing visit duration")

		report.addChange("visit", visit.ID, "duration", oldDur.String(), newFinish.Sub(newStart).String())
		if status != visit.Status {
			report.addChange("visit", visit.ID, "status", string(visit.Status), string(status))
		}
		report.DurationsRepaired++

		if e.DryRun {
			continue
		}

		if err := e.visits.UpdateTimes(ctx, visit.ID, &newStart, &newFinish, status); err != nil {
			report.addFailure("visit %s: repairing duration: %v", visit.ID, err)
			report.DurationsRepaired--
		}
	}

	return nil
}

// SyncVoucherCache re-derives every visit's vouchers_generated list from
// the voucher table (creation order). Runs last: it depends on
// voucher-to-visit links being correct.
func (e *Engine) SyncVoucherCache(ctx context.Context, report *Report) error {
	visits, err := e.visits.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}
	vouchers, err := e.vouchers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vouchers: %w", err)
	}

	codesByVisit := map[string][]string{}
	for _, voucher := range vouchers {
		if voucher.VisitID == "" {
			continue
		}
		codesByVisit[voucher.VisitID] = append(codesByVisit[voucher.VisitID], voucher.Code)
	}

	for _, visit := range visits {
		codes := codesByVisit[visit.ID]
		if codes == nil {
			codes = []string{}
		}
		if equalCodes(visit.VouchersGenerated, codes) {
			continue
		}

		report.addChange("visit", visit.ID, "vouchers_generated",
			fmt.Sprintf("%v", visit.VouchersGenerated), fmt.Sprintf("%v", codes))
		report.CachesRewritten++

		if e.DryRun {
			continue
		}

		if err := e.visits.UpdateVoucherCache(ctx, visit.ID, codes); err != nil {
			report.addFailure("visit %s: rewriting voucher cache: %v", visit.ID, err)
			report.CachesRewritten--
		}
	}

	return nil
}

// AuditOrphans flags vouchers whose visit no longer exists. They are
// reported, never deleted; deciding their fate is a manual call.
func (e *Engine) AuditOrphans(ctx context.Context, report *Report) error {
	visits, err := e.visits.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}
	vouchers, err := e.vouchers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vouchers: %w", err)
	}

	visitIDs := map[string]bool{}
	for _, visit := range visits {
		visitIDs[visit.ID] = true
	}

	for _, voucher := range vouchers {
		if !visitIDs[voucher.VisitID] {
			report.OrphanedVouchers = append(report.OrphanedVouchers, voucher.Code)
			e.logger.WithFields(map[string]interface{}{
				"code":     voucher.Code,
				"visit_id": voucher.VisitID,
			}).Warn("Orphaned voucher found")
		}
	}

	return nil
}

func equalCodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
