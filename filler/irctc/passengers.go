package irctc

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/formctl"
	"github.com/hazyhaar/autofill/progress"
	"github.com/hazyhaar/autofill/resolve"
)

// grow clicks the add-passenger control until the page has one entry per
// requested passenger.
func (r *run) grow() error {
	r.log.Section("Adding Passenger Forms")

	existingEls, err := resolve.FindAll(r.doc, existingEntriesChain)
	if err != nil {
		return err
	}
	existing, required := len(existingEls), len(r.req.Passengers)
	r.log.Info("Existing forms: %d", existing)
	r.log.Info("Required forms: %d", required)

	needed := GrowthNeeded(required, existing)
	if needed == 0 {
		r.log.Ok("Sufficient passenger forms already present")
		return nil
	}

	add, err := resolve.Find(r.doc, addPassengerChain)
	if err != nil {
		return err
	}
	if add == nil {
		r.log.Fail("Add Passenger button not found")
		r.log.Warn("Please manually add passenger forms first")
		return nil
	}
	label, err := add.Text()
	if err != nil {
		return err
	}
	r.log.Ok("Add Passenger button found: %q", progress.Untrusted(label, 60))

	for i := range needed {
		r.log.Info("Adding passenger form %d...", existing+i+1)
		if err := add.Click(); err != nil {
			return err
		}
		if err := r.pause(r.t.PerGrow); err != nil {
			return err
		}
	}
	r.log.Ok("Added %d passenger form(s)", needed)
	r.logger.Debug("irctc: passenger forms added", "count", needed)
	return nil
}

// entry is the resolved field set of one passenger form. Nil fields are
// absent on the page.
type entry struct {
	name, age, gender, berth dom.Element
}

func (r *run) fillPassengers() error {
	r.log.Section("Filling Passenger Details")

	entries := r.entries()
	if len(entries) < len(r.req.Passengers) {
		r.log.Warn("Only %d passenger form(s) available for %d passenger(s)", len(entries), len(r.req.Passengers))
	}
	for i := 0; i < len(r.req.Passengers) && i < len(entries); i++ {
		r.fillEntry(i, r.req.Passengers[i], entries[i])
		if err := r.pause(r.t.PerPassenger); err != nil {
			return err
		}
	}
	return nil
}

// entries resolves passenger forms through their containers, falling back
// to parallel field arrays when no container shape matches. Lookup errors
// are logged and leave the field absent.
func (r *run) entries() []entry {
	sections := r.findAll("passenger sections", r.doc, entryContainerChain)
	r.log.Info("Found %d passenger sections", len(sections))

	if len(sections) > 0 {
		out := make([]entry, 0, len(sections))
		for _, s := range sections {
			out = append(out, entry{
				name:   r.find("name field", s, nameChain),
				age:    r.find("age field", s, ageChain),
				gender: r.find("gender field", s, genderChain),
				berth:  r.find("berth field", s, berthChain),
			})
		}
		return out
	}

	names := r.findAll("name fields", r.doc, nameChain)
	ages := r.findAll("age inputs", r.doc, ageChain)
	genders := r.findAll("gender selects", r.doc, genderChain)
	berths := r.findAll("berth selects", r.doc, berthChain)
	r.log.Info("Direct field search:")
	r.log.Info("- Name fields: %d", len(names))
	r.log.Info("- Age inputs: %d", len(ages))
	r.log.Info("- Gender selects: %d", len(genders))

	var plainNames []dom.Element
	n := max(len(names), len(ages), len(genders))
	out := make([]entry, n)
	for i := range out {
		name := at(names, i)
		if hollow, err := hollowWidget(name); err != nil {
			r.fault("name field", err)
		} else if hollow {
			if plainNames == nil {
				plainNames = r.findAll("name inputs", r.doc, plainNameChain)
			}
			if plain := at(plainNames, i); plain != nil {
				name = plain
			}
		}
		out[i] = entry{name: name, age: at(ages, i), gender: at(genders, i), berth: at(berths, i)}
	}
	return out
}

// hollowWidget reports whether el is a name autocomplete widget rendered
// without its inner input yet.
func hollowWidget(el dom.Element) (bool, error) {
	if el == nil {
		return false, nil
	}
	tag, err := el.TagName()
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(tag, "p-autocomplete") {
		return false, nil
	}
	inner, err := dom.First(el, "input")
	if err != nil {
		return false, err
	}
	return inner == nil, nil
}

func (r *run) find(what string, scope dom.Scope, chain resolve.Chain) dom.Element {
	el, err := resolve.Find(scope, chain)
	if err != nil {
		r.fault(what, err)
		return nil
	}
	return el
}

func (r *run) findAll(what string, scope dom.Scope, chain resolve.Chain) []dom.Element {
	els, err := resolve.FindAll(scope, chain)
	if err != nil {
		r.fault(what, err)
		return nil
	}
	return els
}

func at(els []dom.Element, i int) dom.Element {
	if i < len(els) {
		return els[i]
	}
	return nil
}

// fillEntry writes one passenger. Every field is attempted; a failing field
// is logged and the next one still runs.
func (r *run) fillEntry(i int, p booking.Passenger, e entry) {
	r.log.Info("Filling passenger %d: %s", i+1, p.Name)

	if ok, err := formctl.SetValue(e.name, p.Name); err != nil {
		r.fault("name", err)
	} else if ok {
		r.log.Ok("Name filled")
	} else {
		r.log.Fail("Name field not found")
	}

	if ok, err := formctl.SetValue(e.age, strconv.Itoa(p.Age)); err != nil {
		r.fault("age", err)
	} else if ok {
		r.log.Ok("Age filled")
	} else {
		r.log.Fail("Age field not found")
	}

	code := GenderCode(p.Gender)
	switch ok, err := formctl.SelectOption(e.gender, code); {
	case err != nil:
		r.fault("gender", err)
	case ok:
		r.log.Ok("Gender filled (%s)", code)
	case e.gender == nil:
		r.log.Fail("Gender field not found")
	default:
		r.log.Warn("Gender option %s not available", code)
	}

	if p.Berth == "" {
		return
	}
	switch ok, err := formctl.SelectOption(e.berth, p.Berth); {
	case err != nil:
		r.fault("berth", err)
	case ok:
		r.log.Ok("Berth preference filled")
	case e.berth == nil:
		r.log.Warn("Berth preference field not found")
	default:
		r.log.Warn("Berth preference %s not available", p.Berth)
	}
}
