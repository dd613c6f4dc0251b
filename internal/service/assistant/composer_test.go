package assistant

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/medibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
	"github.com/zhouzirui/medibot/backend/internal/service/ai"
	emotionservice "github.com/zhouzirui/medibot/backend/internal/service/emotion"
	"github.com/zhouzirui/medibot/backend/internal/service/retrieval"
	"github.com/zhouzirui/medibot/backend/internal/testutil"
)

type fixedDetector emotion.Label

func (f fixedDetector) Detect(context.Context, string) emotion.Label { return emotion.Label(f) }

type panickyDetector struct{}

func (panickyDetector) Detect(context.Context, string) emotion.Label { panic("classifier gone") }

type stubRetriever struct {
	passages []knowledge.Passage
	err      error
	calls    int
}

func (s *stubRetriever) Retrieve(context.Context, string) ([]knowledge.Passage, error) {
	s.calls++
	return s.passages, s.err
}

type stubGenerator struct {
	text  string
	err   error
	block bool
	panic bool
}

func (s stubGenerator) Generate(ctx context.Context, _ string, _ []knowledge.Passage) (chat.Answer, error) {
	if s.panic {
		panic("nil model")
	}
	if s.block {
		// ignores ctx on purpose
		time.Sleep(time.Second)
	}
	return chat.Answer{Text: s.text}, s.err
}

var sentenceEnd = regexp.MustCompile(`[.!?](\s|$)`)

func sentenceCount(text string) int {
	return len(sentenceEnd.FindAllStringIndex(strings.TrimSpace(text), -1))
}

func TestComposePrefixesAnswerWithEmpathy(t *testing.T) {
	c := NewComposer(fixedDetector(emotion.Sadness), &stubRetriever{}, stubGenerator{text: "Many people live well with this condition."}, Config{})

	resp := c.Compose(context.Background(), chat.Message{Text: "I feel so hopeless about my diagnosis"}, "u1")
	assert.False(t, resp.Failed)
	assert.Equal(t, emotion.Sadness, resp.Emotion)
	assert.Equal(t, "I'm really sorry you're feeling this way. Many people live well with this condition.", resp.Text)
}

func TestComposeUnknownLabelGetsNoPrefix(t *testing.T) {
	c := NewComposer(fixedDetector("confusion"), &stubRetriever{}, stubGenerator{text: "Drink water."}, Config{})
	resp := c.Compose(context.Background(), chat.Message{Text: "huh"}, "u1")
	assert.Equal(t, "Drink water.", resp.Text)
	assert.Equal(t, emotion.Neutral, resp.Emotion)
}

func TestComposeNormalizesDetectorLabel(t *testing.T) {
	c := NewComposer(fixedDetector(" Sadness "), &stubRetriever{}, stubGenerator{text: "Rest well."}, Config{})
	resp := c.Compose(context.Background(), chat.Message{Text: "I feel low"}, "u1")
	assert.Equal(t, emotion.Sadness, resp.Emotion)
	assert.Equal(t, emotion.EmpathyPrefix(emotion.Sadness)+"Rest well.", resp.Text)
}

func TestComposeFailuresBecomeApology(t *testing.T) {
	cases := map[string]*Composer{
		"retrieval":  NewComposer(fixedDetector(emotion.Fear), &stubRetriever{err: errors.New("qdrant down")}, stubGenerator{text: "x"}, Config{}),
		"generation": NewComposer(fixedDetector(emotion.Fear), &stubRetriever{}, stubGenerator{err: errors.New("429")}, Config{}),
		"empty":      NewComposer(fixedDetector(emotion.Fear), &stubRetriever{}, stubGenerator{text: "  "}, Config{}),
		"panic":      NewComposer(fixedDetector(emotion.Fear), &stubRetriever{}, stubGenerator{panic: true}, Config{}),
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			resp := c.Compose(context.Background(), chat.Message{Text: "is my rash dangerous?"}, "u1")
			assert.True(t, resp.Failed)
			assert.Equal(t, FailureReply, resp.Text)
			assert.Equal(t, emotion.Fear, resp.Emotion)
		})
	}
}

func TestComposeTimesOutOnHungGenerator(t *testing.T) {
	c := NewComposer(fixedDetector(emotion.Neutral), &stubRetriever{}, stubGenerator{text: "late", block: true}, Config{Timeout: 30 * time.Millisecond})

	start := time.Now()
	resp := c.Compose(context.Background(), chat.Message{Text: "fever?"}, "u1")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, resp.Failed)
	assert.Equal(t, FailureReply, resp.Text)
}

func TestComposeSurvivesDetectorPanic(t *testing.T) {
	c := NewComposer(panickyDetector{}, &stubRetriever{}, stubGenerator{text: "Rest."}, Config{})
	resp := c.Compose(context.Background(), chat.Message{Text: "tired"}, "u1")
	assert.Equal(t, emotion.Neutral, resp.Emotion)
	assert.Equal(t, "Rest.", resp.Text)
}

func TestComposeEmptyMessageSkipsBackends(t *testing.T) {
	retriever := &stubRetriever{}
	c := NewComposer(panickyDetector{}, retriever, stubGenerator{panic: true}, Config{})
	resp := c.Compose(context.Background(), chat.Message{Text: "   "}, "u1")
	assert.Equal(t, EmptyMessageReply, resp.Text)
	assert.Zero(t, retriever.calls)
}

// End to end with the real emotion, retrieval and generation services and a scripted model.
func newPipeline(t *testing.T) *Composer {
	t.Helper()
	ctx := context.Background()

	embedder := keywordEmbedder{vocab: []string{"diagnosis", "cancer", "treatment", "insulin", "diabetes"}}
	index, err := retrieval.BuildMemoryIndex(ctx, embedder, []knowledge.Entry{
		{ID: "onc-1", Source: "oncology.pdf", Content: "A cancer diagnosis is often treatable; treatment plans are tailored to each patient."},
		{ID: "dm-1", Source: "diabetes.pdf", Content: "Diabetes is managed with insulin."},
	})
	require.NoError(t, err)

	chatModel := &testutil.ChatModel{Respond: func(input []*schema.Message) (string, error) {
		if strings.Contains(input[0].Content, "oncology.pdf") && !strings.Contains(input[0].Content, "No relevant information found.") {
			return "A diagnosis can feel overwhelming. Treatment plans are tailored to each patient. Your care team can walk you through the options.", nil
		}
		return ai.UncertaintyPhrase, nil
	}}
	generator, err := ai.NewService(ctx, chatModel)
	require.NoError(t, err)

	return NewComposer(
		emotionservice.NewService(nil, emotionservice.Config{}),
		retrieval.NewService(embedder, thresholdSearcher{index}, 3),
		generator,
		Config{},
	)
}

// thresholdSearcher drops passages with no overlap, like a similarity cut-off.
type thresholdSearcher struct{ inner retrieval.Searcher }

func (s thresholdSearcher) Search(ctx context.Context, vector []float32, limit int) ([]knowledge.Passage, error) {
	passages, err := s.inner.Search(ctx, vector, limit)
	if err != nil {
		return nil, err
	}
	kept := passages[:0]
	for _, p := range passages {
		if p.Score > 0 {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

type keywordEmbedder struct{ vocab []string }

func (k keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vector := make([]float32, len(k.vocab))
	for i, word := range k.vocab {
		vector[i] = float32(strings.Count(lower, word))
	}
	return vector, nil
}

func TestScenarioHopelessDiagnosis(t *testing.T) {
	c := newPipeline(t)

	resp := c.Compose(context.Background(), chat.Message{Text: "I feel so hopeless about my diagnosis"}, "u1")
	require.False(t, resp.Failed)
	assert.Equal(t, emotion.Sadness, resp.Emotion)

	prefix := emotion.EmpathyPrefix(emotion.Sadness)
	require.True(t, strings.HasPrefix(resp.Text, prefix))
	answer := strings.TrimPrefix(resp.Text, prefix)
	assert.NotEmpty(t, answer)
	assert.LessOrEqual(t, sentenceCount(answer), ai.MaxAnswerSentences)
}

func TestScenarioUnrelatedQuestionIsUncertain(t *testing.T) {
	c := newPipeline(t)

	resp := c.Compose(context.Background(), chat.Message{Text: "Who painted the Mona Lisa?"}, "u1")
	require.False(t, resp.Failed)
	assert.Contains(t, resp.Text, ai.UncertaintyPhrase)
}
