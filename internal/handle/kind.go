package handle

import "fmt"

// Kind tags the value a handle refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindEngine
	KindMemoryState
	KindReview
	KindItem
	KindHistory
	KindNextStates
	KindParameters
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindEngine:      "engine",
	KindMemoryState: "memory_state",
	KindReview:      "review",
	KindItem:        "item",
	KindHistory:     "history",
	KindNextStates:  "next_states",
	KindParameters:  "parameters",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}
