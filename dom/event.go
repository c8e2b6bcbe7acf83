package dom

// EventKind names a synthetic DOM event.
type EventKind string

const (
	EventInput   EventKind = "input"
	EventChange  EventKind = "change"
	EventBlur    EventKind = "blur"
	EventKeyDown EventKind = "keydown"
	EventKeyUp   EventKind = "keyup"
	EventClick   EventKind = "click"
)

// IsKeyboard reports whether the event must be built as a KeyboardEvent.
func (k EventKind) IsKeyboard() bool {
	return k == EventKeyDown || k == EventKeyUp
}

// changedSequence is what reactive form bindings (Angular, PrimeNG) listen
// to before they copy a DOM value into their model. Order matters.
var changedSequence = []EventKind{EventInput, EventChange, EventBlur, EventKeyDown, EventKeyUp}

// ChangedSequence returns a copy of the notification sequence NotifyChanged fires.
func ChangedSequence() []EventKind {
	return append([]EventKind(nil), changedSequence...)
}

// NotifyChanged replays the edit notifications on el so the host framework
// treats a programmatic value write as a user edit.
func NotifyChanged(el Element) error {
	return el.Dispatch(changedSequence...)
}

// NotifyCommitted fires the value-committed notification used by select controls.
func NotifyCommitted(el Element) error {
	return el.Dispatch(EventChange)
}

// NotifyActivated fires the notifications of a choice control being picked.
func NotifyActivated(el Element) error {
	return el.Dispatch(EventClick, EventChange, EventInput)
}
