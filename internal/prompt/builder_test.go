package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torigami/kokoro/internal/conversation"
	"github.com/torigami/kokoro/internal/search"
)

func TestBuildContainsFixedSections(t *testing.T) {
	p := Build(nil, conversation.PhaseEmpathy, nil, "眠れません")

	assert.Contains(t, p, "鳥神明")
	assert.Contains(t, p, "【共感フェーズ】")
	assert.Contains(t, p, "ユーザー: 眠れません")
	assert.True(t, strings.HasSuffix(p, "AI:"))
	assert.NotContains(t, p, "これまでの会話:")
	assert.NotContains(t, p, "参考にした外部情報")
}

func TestBuildPhaseSelection(t *testing.T) {
	tests := []struct {
		phase conversation.Phase
		want  string
	}{
		{conversation.PhaseEmpathy, "【共感フェーズ】"},
		{conversation.PhaseAwareness, "【気づきフェーズ】"},
		{conversation.PhaseReconstruction, "【再構築フェーズ】"},
	}
	for _, tt := range tests {
		p := Build(nil, tt.phase, nil, "こんにちは")
		assert.Contains(t, p, tt.want)
	}

	// Unknown phase: no instruction block, no blank placeholder.
	p := Build(nil, conversation.Phase("bogus"), nil, "こんにちは")
	assert.NotContains(t, p, "フェーズ】")
	assert.NotContains(t, p, "\n\n\n\n")
}

func TestBuildRendersRecentHistoryOldestFirst(t *testing.T) {
	var turns []conversation.Turn
	for i := 0; i < 5; i++ {
		turns = append(turns,
			conversation.Turn{Role: conversation.RoleUser, Content: fmt.Sprintf("q%d", i)},
			conversation.Turn{Role: conversation.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	p := Build(turns, conversation.PhaseAwareness, nil, "next")

	// only the last 6 turns appear
	assert.NotContains(t, p, "ユーザー: q1")
	assert.Contains(t, p, "ユーザー: q2")
	assert.Contains(t, p, "AI: a4")

	// oldest of the retained turns comes first
	require.Less(t, strings.Index(p, "ユーザー: q2"), strings.Index(p, "AI: a4"))
}

func TestBuildReferenceBlock(t *testing.T) {
	refs := []search.Result{
		{Title: "T1", Snippet: "S1", Link: "https://a"},
		{Title: "T2", Snippet: "S2", Link: "https://b"},
		{Title: "T3", Snippet: "S3", Link: "https://c"},
		{Title: "T4", Snippet: "S4", Link: "https://d"},
	}

	p := Build(nil, conversation.PhaseEmpathy, refs, "query")

	assert.Contains(t, p, "参考にした外部情報（要約）:")
	assert.Contains(t, p, "1. T1 — S1")
	assert.Contains(t, p, "3. T3 — S3")
	assert.NotContains(t, p, "T4")
}

func TestBuildAwarenessScenario(t *testing.T) {
	// empathy + reason-seeking input transitions to awareness; the prompt built
	// for that phase must carry the awareness instruction block.
	userText := "なぜ私はいつも失敗するのでしょうか"
	next := conversation.NextPhase(conversation.PhaseEmpathy, userText, 0)
	require.Equal(t, conversation.PhaseAwareness, next)

	p := Build(nil, next, nil, userText)
	assert.Contains(t, p, "【気づきフェーズ】")
	assert.Contains(t, p, "ユーザー: "+userText)
}
