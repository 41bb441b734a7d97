package engine

// journal records undo steps for an in-flight operation so that a
// rejection can roll every book and balance mutation back. Steps run
// in reverse append order.
type journal struct {
	undos []func()
}

func (j *journal) record(undo func()) {
	j.undos = append(j.undos, undo)
}

// rollback runs all recorded undo steps, newest first.
func (j *journal) rollback() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}
