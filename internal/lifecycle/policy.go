package lifecycle

// Kind identifies an entity category sharing the list-controller pattern.
type Kind string

const (
	KindClient     Kind = "client"
	KindGuard      Kind = "guard"
	KindAssignment Kind = "assignment"
	KindAttendance Kind = "attendance"
	KindIncident   Kind = "incident"
	KindComplaint  Kind = "complaint"
	KindExpense    Kind = "expense_review"
)

// Action describes one legal next step offered to the operator.
type Action struct {
	To    string `json:"to"`
	Label string `json:"label"`
}

// Table maps a current status to its ordered set of reachable statuses.
// A missing entry or an empty target list marks the status as terminal.
type Table map[string][]string

// Policy answers which status transitions are legal per entity kind.
// Kinds without an explicit table fall back to a permissive rule where
// every distinct status in the kind's universe is reachable from any other.
type Policy struct {
	tables   map[Kind]Table
	statuses map[Kind][]string
	labels   map[Kind]map[string]string
}

// NewPolicy builds the default policy. Only the assignment kind carries a
// strict table; the remaining kinds stay permissive until the business
// supplies stricter rules.
func NewPolicy() *Policy {
	return &Policy{
		tables: map[Kind]Table{
			KindAssignment: {
				"assigned":  {"active", "cancelled"},
				"active":    {"completed", "cancelled"},
				"completed": {},
				"cancelled": {},
			},
		},
		statuses: map[Kind][]string{
			KindAssignment: {"assigned", "active", "completed", "cancelled"},
			KindAttendance: {"pending", "present", "absent", "late"},
			KindIncident:   {"pending", "acknowledged", "investigating", "resolved", "closed", "rejected"},
			KindComplaint:  {"open", "in_review", "resolved"},
			KindExpense:    {"pending", "approved", "rejected"},
		},
		labels: map[Kind]map[string]string{
			KindAssignment: {
				"active":    "Mark Active",
				"completed": "Mark Completed",
				"cancelled": "Cancel Assignment",
			},
		},
	}
}

// WithTable returns a copy of the policy carrying a strict table for the
// given kind, so stricter rules can be plugged in without restructuring.
func (p *Policy) WithTable(kind Kind, table Table) *Policy {
	tables := make(map[Kind]Table, len(p.tables)+1)
	for k, t := range p.tables {
		tables[k] = t
	}
	tables[kind] = table
	return &Policy{tables: tables, statuses: p.statuses, labels: p.labels}
}

// Statuses returns the status universe for a kind. Empty for kinds
// without a lifecycle (client, guard).
func (p *Policy) Statuses(kind Kind) []string {
	return p.statuses[kind]
}

// HasLifecycle reports whether the kind carries a status enumeration.
func (p *Policy) HasLifecycle(kind Kind) bool {
	return len(p.statuses[kind]) > 0
}

// IsLegal reports whether moving from one status to another is allowed.
// A no-op transition is always illegal so a duplicate confirmation cannot
// re-trigger the same change.
func (p *Policy) IsLegal(kind Kind, from, to string) bool {
	if from == to {
		return false
	}
	if table, ok := p.tables[kind]; ok {
		for _, target := range table[from] {
			if target == to {
				return true
			}
		}
		return false
	}
	universe := p.statuses[kind]
	if len(universe) == 0 {
		return false
	}
	known := false
	for _, s := range universe {
		if s == from {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	for _, s := range universe {
		if s == to {
			return true
		}
	}
	return false
}

// AvailableActions enumerates the legal next steps from a status, in the
// order the kind's table (or status universe) declares them.
func (p *Policy) AvailableActions(kind Kind, from string) []Action {
	var targets []string
	if table, ok := p.tables[kind]; ok {
		targets = table[from]
	} else {
		targets = p.statuses[kind]
	}
	actions := make([]Action, 0, len(targets))
	for _, to := range targets {
		if !p.IsLegal(kind, from, to) {
			continue
		}
		actions = append(actions, Action{To: to, Label: p.label(kind, to)})
	}
	return actions
}

func (p *Policy) label(kind Kind, to string) string {
	if byKind, ok := p.labels[kind]; ok {
		if label, ok := byKind[to]; ok {
			return label
		}
	}
	return defaultLabel(to)
}

func defaultLabel(status string) string {
	label := "Mark "
	upperNext := true
	for _, r := range status {
		switch {
		case r == '_':
			label += " "
			upperNext = true
		case upperNext && r >= 'a' && r <= 'z':
			label += string(r - 'a' + 'A')
			upperNext = false
		default:
			label += string(r)
			upperNext = false
		}
	}
	return label
}
