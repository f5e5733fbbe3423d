package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torigami/kokoro/internal/conversation"
	"github.com/torigami/kokoro/internal/search"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSender struct {
	mu     sync.Mutex
	err    error
	pushed []string
}

func (f *fakeSender) Push(_ context.Context, targetID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, targetID+"|"+text)
	return f.err
}

type fakeSearcher struct {
	results []search.Result
	queries []string
}

func (f *fakeSearcher) Enabled() bool { return true }

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) []search.Result {
	f.queries = append(f.queries, query)
	return f.results
}

func TestProcessSuccessAppendsBothTurns(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{reply: "それはとてもつらかったですね。少しずつで大丈夫ですよ。ここで一緒に整理していきましょう。"}
	sender := &fakeSender{}

	svc := NewService(nil, store, gen, sender, nil)
	svc.Process(context.Background(), "U1", "疲れました")

	turns, phase := store.Snapshot("U1")
	require.Len(t, turns, 2)
	assert.Equal(t, conversation.RoleUser, turns[0].Role)
	assert.Equal(t, "疲れました", turns[0].Content)
	assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	assert.Equal(t, conversation.PhaseEmpathy, phase)

	require.Len(t, sender.pushed, 1)
	assert.True(t, strings.HasPrefix(sender.pushed[0], "U1|"))
}

func TestProcessPhaseAdvancesAndPromptUsesNewPhase(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{reply: "長めの返答です。焦らなくて大丈夫。理由はひとつではないことが多いものです。一緒に見ていきましょう。"}
	sender := &fakeSender{}

	svc := NewService(nil, store, gen, sender, nil)
	svc.Process(context.Background(), "U1", "なぜ私はいつも失敗するのでしょうか")

	_, phase := store.Snapshot("U1")
	assert.Equal(t, conversation.PhaseAwareness, phase)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "【気づきフェーズ】")
}

func TestProcessGenerationFailureFallsBackToApology(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{err: errors.New("backend down")}
	sender := &fakeSender{}

	svc := NewService(nil, store, gen, sender, nil)
	svc.Process(context.Background(), "U1", "こんにちは")

	// the apology is delivered verbatim and recorded as the assistant turn
	require.Len(t, sender.pushed, 1)
	assert.Equal(t, "U1|"+ApologyMessage, sender.pushed[0])

	turns, _ := store.Snapshot("U1")
	require.Len(t, turns, 2)
	assert.Equal(t, ApologyMessage, turns[1].Content)
}

func TestProcessDeliveryFailureKeepsHistory(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{reply: "落ち着いた返答です。まずは深呼吸をして、今日は無理をしないでくださいね。また話しましょう。"}
	sender := &fakeSender{err: errors.New("push rejected")}

	svc := NewService(nil, store, gen, sender, nil)
	svc.Process(context.Background(), "U1", "助けて")

	turns, _ := store.Snapshot("U1")
	assert.Len(t, turns, 2)
}

func TestProcessPostProcessesShortQuestionReply(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{reply: "どうしてそう思うのですか？"}
	sender := &fakeSender{}

	svc := NewService(nil, store, gen, sender, nil)
	svc.Process(context.Background(), "U1", "なぜ失敗するのか")

	require.Len(t, sender.pushed, 1)
	assert.Contains(t, sender.pushed[0], "まず結論を言うと、")
}

func TestProcessIncludesSearchReferences(t *testing.T) {
	store := conversation.NewStore(nil, 10)
	gen := &fakeGenerator{reply: "参考情報も踏まえると、まずは生活リズムを整えることから始めるのがよさそうです。無理のない範囲で。"}
	sender := &fakeSender{}
	searcher := &fakeSearcher{results: []search.Result{{Title: "睡眠の基礎", Snippet: "規則正しい生活", Link: "https://x"}}}

	svc := NewService(nil, store, gen, sender, searcher)
	svc.Process(context.Background(), "U1", "眠れない")

	require.Len(t, searcher.queries, 1)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "参考にした外部情報（要約）:")
	assert.Contains(t, gen.prompts[0], "1. 睡眠の基礎 — 規則正しい生活")
}

func TestProcessConcurrentSameTargetLosesNoTurns(t *testing.T) {
	store := conversation.NewStore(nil, 50)
	gen := &fakeGenerator{reply: "お二人の話を聞いています。ゆっくりで大丈夫ですので、順番に教えてくださいね。待っています。"}
	sender := &fakeSender{}
	svc := NewService(nil, store, gen, sender, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Process(context.Background(), "G1", "グループからの発言")
		}()
	}
	wg.Wait()

	turns, _ := store.Snapshot("G1")
	assert.Len(t, turns, 4)
	assert.Equal(t, 2, gen.calls())
}
