// Package conversation keeps per-target message history and the counseling
// phase state machine. Records live for the process lifetime only.
package conversation

// Role identifies who produced a turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message exchange unit.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Phase is the counseling stance used to steer prompt instructions. It only
// ever advances along empathy -> awareness -> reconstruction.
type Phase string

// Counseling phases, in order.
const (
	PhaseEmpathy        Phase = "empathy"
	PhaseAwareness      Phase = "awareness"
	PhaseReconstruction Phase = "reconstruction"
)

// rank orders phases for the monotonicity guard. Unknown phases rank lowest so
// they can never overwrite a known one.
func (p Phase) rank() int {
	switch p {
	case PhaseEmpathy:
		return 1
	case PhaseAwareness:
		return 2
	case PhaseReconstruction:
		return 3
	default:
		return 0
	}
}
