package memory

import "github.com/dmitrijs2005/wishlist/internal/dbx"

// journal is the DBTX handed to fn by WithTx. It records the prior state of
// every entry the unit of work touches so a failed unit can be undone. Its SQL
// methods are never called; the memory stores only look at the undo log.
type journal struct {
	dbx.DBTX
	undo []func()
}

func journalOf(tx dbx.DBTX) *journal {
	j, _ := tx.(*journal)
	return j
}

// remember saves m[key] before it changes. Callers hold Manager.mu.
func remember[T any](j *journal, m map[string]*T, key string) {
	if j == nil {
		return
	}
	if old, ok := m[key]; ok {
		saved := *old
		j.undo = append(j.undo, func() { m[key] = &saved })
		return
	}
	j.undo = append(j.undo, func() { delete(m, key) })
}

// rollback replays the undo log newest first. Callers hold Manager.mu.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}
