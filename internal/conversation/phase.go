package conversation

import "strings"

// Keyword lists come from the Japanese deployment with English equivalents.
// Matching is case-normalized substring containment.
var (
	reasonKeywords = []string{"なぜ", "どうして", "理由", "意味", "why", "reason", "meaning"}
	agencyKeywords = []string{"自分", "自由", "選ぶ", "したい", "できる", "myself", "freedom", "choose", "want to", "can"}
)

// NextPhase computes the phase for the incoming user message. Transitions are
// one step at most and never regress:
//   - empathy -> awareness on a reason-seeking keyword or once the history has
//     at least 3 turns;
//   - awareness -> reconstruction on a self-agency keyword;
//   - reconstruction is terminal.
//
// Unknown phases are returned unchanged.
func NextPhase(current Phase, userText string, historyLen int) Phase {
	text := strings.ToLower(userText)
	switch current {
	case PhaseEmpathy:
		if containsAny(text, reasonKeywords) || historyLen >= 3 {
			return PhaseAwareness
		}
	case PhaseAwareness:
		if containsAny(text, agencyKeywords) {
			return PhaseReconstruction
		}
	}
	return current
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
