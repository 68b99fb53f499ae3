package replay

// UndoStack keeps linear undo/redo history of data-only command records.
// C should be a plain value type holding what the interpreter needs to
// apply the command in either direction; no closures are stored here.
// Pushing a new command discards the redo branch.
type UndoStack[C any] struct {
	undo []C
	redo []C
}

func NewUndoStack[C any]() *UndoStack[C] {
	return &UndoStack[C]{}
}

// Push records a newly executed command and clears the redo stack.
func (s *UndoStack[C]) Push(cmd C) {
	s.undo = append(s.undo, cmd)
	s.redo = s.redo[:0]
}

// Undo pops the newest command onto the redo stack.
func (s *UndoStack[C]) Undo() (C, bool) {
	var zero C
	if len(s.undo) == 0 {
		return zero, false
	}
	cmd := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, cmd)
	return cmd, true
}

// Redo pops the newest undone command back onto the undo stack.
func (s *UndoStack[C]) Redo() (C, bool) {
	var zero C
	if len(s.redo) == 0 {
		return zero, false
	}
	cmd := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, cmd)
	return cmd, true
}

// Peek returns the newest undoable command without moving it.
func (s *UndoStack[C]) Peek() (C, bool) {
	var zero C
	if len(s.undo) == 0 {
		return zero, false
	}
	return s.undo[len(s.undo)-1], true
}

func (s *UndoStack[C]) CanUndo() bool { return len(s.undo) > 0 }

func (s *UndoStack[C]) CanRedo() bool { return len(s.redo) > 0 }

// Clear drops both stacks; called on new game start and after rollbacks.
func (s *UndoStack[C]) Clear() {
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}
