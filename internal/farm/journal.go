package farm

import "log/slog"

// journal records compensating token movements for a call in progress so a
// later failure can undo the earlier ones.
type journal struct {
	steps []journalStep
}

type journalStep struct {
	name string
	undo func() error
}

func (j *journal) add(name string, undo func() error) {
	j.steps = append(j.steps, journalStep{name: name, undo: undo})
}

// rollback runs the compensations newest first.
func (j *journal) rollback() {
	for i := len(j.steps) - 1; i >= 0; i-- {
		if err := j.steps[i].undo(); err != nil {
			slog.Error("farm rollback step failed", "step", j.steps[i].name, "err", err)
		}
	}
	j.steps = nil
}
