package sched

// CardHandlers receives the side-effect callbacks for one card id.
// All methods are optional in spirit: unknown ids resolve to NopHandlers,
// so a missing registration is silently skipped rather than an error.
type CardHandlers interface {
	Apply(m Modifier)
	Expire(m Modifier)
	OnEnqueue(q QueuedEffect)
	OnComplete(meta, payload map[string]any)
}

// NopHandlers is the fallback for ids with no registration.
type NopHandlers struct{}

func (NopHandlers) Apply(Modifier)                 {}
func (NopHandlers) Expire(Modifier)                {}
func (NopHandlers) OnEnqueue(QueuedEffect)         {}
func (NopHandlers) OnComplete(_, _ map[string]any) {}

// HandlerFuncs adapts plain functions to CardHandlers; nil fields are no-ops.
type HandlerFuncs struct {
	ApplyFunc      func(m Modifier)
	ExpireFunc     func(m Modifier)
	OnEnqueueFunc  func(q QueuedEffect)
	OnCompleteFunc func(meta, payload map[string]any)
}

func (h HandlerFuncs) Apply(m Modifier) {
	if h.ApplyFunc != nil {
		h.ApplyFunc(m)
	}
}

func (h HandlerFuncs) Expire(m Modifier) {
	if h.ExpireFunc != nil {
		h.ExpireFunc(m)
	}
}

func (h HandlerFuncs) OnEnqueue(q QueuedEffect) {
	if h.OnEnqueueFunc != nil {
		h.OnEnqueueFunc(q)
	}
}

func (h HandlerFuncs) OnComplete(meta, payload map[string]any) {
	if h.OnCompleteFunc != nil {
		h.OnCompleteFunc(meta, payload)
	}
}
