// Package prompt assembles the model input for the counseling pipeline and
// post-processes generated replies.
package prompt

import (
	"fmt"
	"strings"

	"github.com/torigami/kokoro/internal/conversation"
	"github.com/torigami/kokoro/internal/search"
)

// At most this many recent turns are rendered into the prompt.
const maxPromptTurns = 6

// MaxReferenceItems caps the external references included in a prompt.
const MaxReferenceItems = 3

const baseRules = `あなたは、共感的で落ち着いた心理カウンセリングを行います。以下のルールを必ず守ってください。

1) 自己紹介するときは、「鳥神明」、「みなさんのお友達」とだけ答える。
2) ユーザーが質問をした場合は、**まず明確な回答を行うこと**。質問だけで返すことは禁止する。
3) 回答の後で補助的な質問を行う場合でも、**1ターンにつき質問は最大1つ**までとする。
4) 医療的・法的・診断的な助言は行わず、必要に応じて専門機関に案内する。
5) ユーザーの言葉を否定しないこと。必ず肯定的・受容的なトーンで答える。
6) 必要に応じて外部の信頼できる情報を参照して要約し、ユーザーに分かりやすく伝える（ただし、専門家の断定は避ける）。`

const closingInstruction = `AIはまず【質問があれば回答】を行い、その後必要なら補助質問は最大1つにとどめること。
出力は日本語で、簡潔に、優しい口調で答えてください。

AI:`

var phaseInstructions = map[conversation.Phase]string{
	conversation.PhaseEmpathy:        "現在は【共感フェーズ】です。まず感情を受け止め、励ます表現と短い共感文で始めてください。",
	conversation.PhaseAwareness:      "現在は【気づきフェーズ】です。やさしく背景や理由を探る質問やリフレームを促す表現を使ってください。",
	conversation.PhaseReconstruction: "現在は【再構築フェーズ】です。小さな実行可能な行動案や自己選択を促す表現を使ってください。",
}

// Build assembles the prompt in a fixed order: behavioral rules, phase
// instruction, recent history (last 6 turns, oldest first), optional external
// references, the new user line, and the closing instruction. Empty sections
// are omitted entirely.
func Build(turns []conversation.Turn, phase conversation.Phase, refs []search.Result, userText string) string {
	sections := []string{baseRules}

	if instr, ok := phaseInstructions[phase]; ok {
		sections = append(sections, instr)
	}

	if history := renderHistory(turns); history != "" {
		sections = append(sections, "これまでの会話:\n"+history)
	}

	if references := renderReferences(refs); references != "" {
		sections = append(sections, "参考にした外部情報（要約）:\n"+references)
	}

	sections = append(sections, "ユーザー: "+userText)
	sections = append(sections, closingInstruction)

	return strings.Join(sections, "\n\n")
}

func renderHistory(turns []conversation.Turn) string {
	if len(turns) > maxPromptTurns {
		turns = turns[len(turns)-maxPromptTurns:]
	}
	var b strings.Builder
	for _, turn := range turns {
		label := "AI"
		if turn.Role == conversation.RoleUser {
			label = "ユーザー"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, turn.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderReferences(refs []search.Result) string {
	if len(refs) > MaxReferenceItems {
		refs = refs[:MaxReferenceItems]
	}
	var b strings.Builder
	for i, ref := range refs {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, ref.Title, ref.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
