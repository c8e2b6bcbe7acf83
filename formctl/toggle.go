package formctl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/progress"
)

// ErrNoOption is returned by Toggle.Select when no member of the group
// matches. It is never pipeline-fatal.
var ErrNoOption = errors.New("formctl: no matching option")

// ToggleState is the per-group selection state.
type ToggleState int

const (
	StateUnknown ToggleState = iota
	StateUnselected
	StateSelected
)

func (s ToggleState) String() string {
	switch s {
	case StateUnselected:
		return "unselected"
	case StateSelected:
		return "selected"
	}
	return "unknown"
}

// Toggle describes one mutually exclusive choice group and the member to
// select in it.
type Toggle struct {
	// Title names the target member in log lines.
	Title string
	// Group matches every member input of the group.
	Group string
	// Container is the widget wrapping a member input; it carries
	// aria-checked.
	Container string
	// Box is the visual element inside Container that some widgets bind
	// their click to.
	Box string
	// Label is looked up under the container's parent.
	Label string
	// Keywords are matched against the lower-cased label text.
	Keywords []string
	// IDs are positional identities matched against the input id or value.
	IDs []string
}

// Outcome reports what Select did.
type Outcome struct {
	State ToggleState
	// Activated is true when the activation sequence ran.
	Activated bool
	Member    dom.Element
}

type member struct {
	input     dom.Element
	container dom.Element
	id, value string
	label     string
}

// Select locates the target member and activates it unless its container
// already reports aria-checked="true". Repeated calls are idempotent.
func (t Toggle) Select(scope dom.Scope, log *progress.Log) (Outcome, error) {
	inputs, err := scope.QueryAll(t.Group)
	if err != nil {
		return Outcome{}, fmt.Errorf("formctl: toggle group: %w", err)
	}
	members := make([]member, 0, len(inputs))
	for _, in := range inputs {
		m, err := t.describe(in)
		if err != nil {
			return Outcome{}, err
		}
		members = append(members, m)
	}

	target, ok := t.pick(members)
	if !ok {
		log.Warn("Payment option not found")
		log.Info("Available options:")
		for _, m := range members {
			log.Info("  - %s (id=%s)", progress.Untrusted(m.label, 80), m.id)
		}
		return Outcome{State: StateUnknown}, ErrNoOption
	}
	log.Info("Found %s radio: id=%s, value=%s, text=%q", t.Title, target.id, target.value,
		progress.Untrusted(strings.ToLower(target.label), 50))

	aria, _, err := target.container.Attribute("aria-checked")
	if err != nil {
		return Outcome{}, fmt.Errorf("formctl: toggle state: %w", err)
	}
	log.Info("Current aria-checked: %s", aria)
	if aria == "true" {
		log.Ok("%s already selected", t.Title)
		return Outcome{State: StateSelected, Member: target.input}, nil
	}

	if err := t.activate(target, log); err != nil {
		return Outcome{State: StateUnselected, Member: target.input}, err
	}
	log.Ok("%s selected (id=%s)", t.Title, target.id)
	return Outcome{State: StateSelected, Activated: true, Member: target.input}, nil
}

func (t Toggle) describe(in dom.Element) (member, error) {
	m := member{input: in}
	var err error
	if m.id, _, err = in.Attribute("id"); err != nil {
		return m, fmt.Errorf("formctl: toggle member: %w", err)
	}
	if m.value, err = in.Value(); err != nil {
		return m, fmt.Errorf("formctl: toggle member: %w", err)
	}
	if m.container, err = in.Closest(t.Container); err != nil {
		return m, fmt.Errorf("formctl: toggle member: %w", err)
	}
	if m.container == nil {
		return m, nil
	}
	parent, err := m.container.Parent()
	if err != nil || parent == nil {
		return m, err
	}
	lbl, err := dom.First(parent, t.Label)
	if err != nil || lbl == nil {
		return m, err
	}
	txt, err := lbl.Text()
	m.label = strings.TrimSpace(txt)
	return m, err
}

// pick returns the first member with a container whose label contains a
// keyword or whose id/value is one of IDs.
func (t Toggle) pick(members []member) (member, bool) {
	for _, m := range members {
		if m.container == nil {
			continue
		}
		text := strings.ToLower(m.label)
		for _, k := range t.Keywords {
			if strings.Contains(text, strings.ToLower(k)) {
				return m, true
			}
		}
		for _, id := range t.IDs {
			if m.id == id || m.value == id {
				return m, true
			}
		}
	}
	return member{}, false
}

// activate drives every channel a radio widget may bind to: the visual box
// click, the input click, the checked property, aria-checked and the
// click/change/input notifications.
func (t Toggle) activate(m member, log *progress.Log) error {
	if t.Box != "" {
		box, err := dom.First(m.container, t.Box)
		if err != nil {
			return fmt.Errorf("formctl: toggle box: %w", err)
		}
		if box != nil {
			if err := box.Click(); err != nil {
				return fmt.Errorf("formctl: toggle box click: %w", err)
			}
			log.Ok("Clicked radio button div")
		}
	}
	if err := m.input.Click(); err != nil {
		return fmt.Errorf("formctl: toggle click: %w", err)
	}
	if err := m.input.SetChecked(true); err != nil {
		return fmt.Errorf("formctl: toggle checked: %w", err)
	}
	if err := m.container.SetAttribute("aria-checked", "true"); err != nil {
		return fmt.Errorf("formctl: toggle aria: %w", err)
	}
	if err := dom.NotifyActivated(m.input); err != nil {
		return fmt.Errorf("formctl: toggle notify: %w", err)
	}
	return nil
}
