package syncer

import (
	"fmt"
	"time"

	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/vault"
)

// TargetState is the health of one target as seen from local state.
type TargetState string

const (
	// StateDisabled means the target's environment variables are absent.
	StateDisabled TargetState = "disabled"

	// StateReady means the target is configured and its last run, if
	// any, had no failures.
	StateReady TargetState = "ready"

	// StateFailing means the target's last run had at least one failure.
	StateFailing TargetState = "failing"
)

// TargetStatus describes one target in a status report.
type TargetStatus struct {
	Name        string
	State       TargetState
	MissingVars []string
	LastSync    time.Time
	LastRun     *TargetStats
}

// StatusReport is the answer to `notesync --status`.
type StatusReport struct {
	VaultFiles   int
	TrackedFiles int
	DirtyFiles   int
	Targets      []TargetStatus
}

// Status inspects the vault and journal without touching the network.
func (e *Engine) Status() (*StatusReport, error) {
	docs, err := e.vault.List()
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}

	tracked, err := e.journal.Count()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		VaultFiles:   len(docs),
		TrackedFiles: tracked,
	}

	dirty, err := e.countDirty(docs)
	if err != nil {
		return nil, err
	}
	report.DirtyFiles = dirty

	for _, tgt := range e.targets {
		status := TargetStatus{Name: tgt.Name()}

		if !tgt.Configured() {
			status.State = StateDisabled
			status.MissingVars = tgt.MissingVars()
			report.Targets = append(report.Targets, status)
			continue
		}

		status.State = StateReady

		lastSync, err := e.journal.LastSync(tgt.Name())
		if err != nil {
			return nil, err
		}
		status.LastSync = lastSync

		stats, err := e.journal.RunStats(tgt.Name())
		if err != nil {
			return nil, err
		}
		if stats != nil {
			status.LastRun = &TargetStats{
				Succeeded: stats.Succeeded,
				Failed:    stats.Failed,
				Skipped:   stats.Skipped,
			}
			if stats.Failed > 0 {
				status.State = StateFailing
			}
		}

		report.Targets = append(report.Targets, status)
	}

	return report, nil
}

// countDirty counts files that at least one configured target has not
// seen at their current hash.
func (e *Engine) countDirty(docs []*vault.Document) (int, error) {
	configured := e.configured()
	if len(configured) == 0 {
		return 0, nil
	}

	perTarget := make(map[string]map[string]*target.Record, len(configured))
	for _, tgt := range configured {
		records, err := e.journal.ForTarget(tgt.Name())
		if err != nil {
			return 0, err
		}
		perTarget[tgt.Name()] = records
	}

	dirty := 0
	for _, doc := range docs {
		for _, tgt := range configured {
			rec := perTarget[tgt.Name()][doc.RelPath]
			if rec == nil || rec.Hash != doc.Hash {
				dirty++
				break
			}
		}
	}
	return dirty, nil
}

// TargetCheck is one line of `notesync --check` output.
type TargetCheck struct {
	Name        string
	Configured  bool
	MissingVars []string
}

// Check reports which targets are configured and what is missing from
// the ones that are not. It never touches the network.
func (e *Engine) Check() []TargetCheck {
	checks := make([]TargetCheck, 0, len(e.targets))
	for _, tgt := range e.targets {
		checks = append(checks, TargetCheck{
			Name:        tgt.Name(),
			Configured:  tgt.Configured(),
			MissingVars: tgt.MissingVars(),
		})
	}
	return checks
}
