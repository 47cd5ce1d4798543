package assistant

import "fmt"

// Tier is the priority bucket a message is sorted into.
type Tier int

const (
	TierEscalate Tier = 1
	TierHandle   Tier = 2
	TierDraft    Tier = 3
	TierFlag     Tier = 4
)

// Tiers lists all tiers in order.
var Tiers = []Tier{TierEscalate, TierHandle, TierDraft, TierFlag}

// Valid reports whether t is one of the four tiers.
func (t Tier) Valid() bool {
	return t >= TierEscalate && t <= TierFlag
}

// Action is the name of what the assistant does for t. It doubles as the
// Gmail label suffix.
func (t Tier) Action() string {
	switch t {
	case TierEscalate:
		return "escalate"
	case TierHandle:
		return "handle"
	case TierDraft:
		return "draft"
	case TierFlag:
		return "flag"
	}
	return "unknown"
}

// Label returns the Gmail label name used for t under prefix.
func (t Tier) Label(prefix string) string {
	var name string
	switch t {
	case TierEscalate:
		name = "escalate"
	case TierHandle:
		name = "handled"
	case TierDraft:
		name = "drafted"
	default:
		name = "flagged"
	}
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (t Tier) String() string {
	return fmt.Sprintf("tier %d (%s)", int(t), t.Action())
}
