package prompt

import (
	"strings"
	"unicode/utf8"
)

// Replies shorter than this (in runes) that contain a question marker are
// judged question-only and get a lead-in prepended.
const shortReplyRuneLimit = 64

// EnsureAnswerFirst enforces the answer-before-asking rule on generated text.
// A short reply containing a question marker gets a synthesized lead-in
// sentence matched to the user's question style; everything else passes
// through trimmed. This is a keyword heuristic, not a classifier.
func EnsureAnswerFirst(reply, userText string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.ContainsAny(trimmed, "?？") {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) >= shortReplyRuneLimit {
		return trimmed
	}
	return "まず結論を言うと、" + answerHint(userText) + "\n\n" + trimmed
}

func answerHint(userText string) string {
	text := strings.ToLower(userText)
	switch {
	case containsAny(text, "なぜ", "どうして", "why"):
		return "多くの場合、その背景には複数の要因が考えられます。"
	case containsAny(text, "どうやって", "どうすれば", "how"):
		return "まずは小さな一歩から始めるのが現実的です。"
	default:
		return "落ち着いて一つずつ整理することで、次の一歩が見えてくるかもしれません。"
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
