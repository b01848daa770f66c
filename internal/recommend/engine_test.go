package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/lunch-recommender/internal/models"
)

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func candidates() []models.Restaurant {
	return []models.Restaurant{
		models.Restaurant{ID: 1, Name: "Hanok Kitchen", Category: "Korean", Rating: 4.5}.WithDistance(120),
		models.Restaurant{ID: 2, Name: "Sushi Ro", Category: "Japanese", Rating: 4.2}.WithDistance(300),
		models.Restaurant{ID: 3, Name: "Pho Saigon", Category: "Vietnamese", Rating: 4.0}.WithDistance(800),
	}
}

func fixedPick(i int) func(int) int {
	return func(int) int { return i }
}

func TestRecommend_NoCandidates(t *testing.T) {
	llm := new(MockLLM)
	e := NewEngine(logrus.New(), WithLLM(llm))

	recs := e.Recommend(context.Background(), nil, "somewhere")
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_NoLLMConfigured(t *testing.T) {
	e := NewEngine(logrus.New(), WithPicker(fixedPick(1)))

	recs := e.Recommend(context.Background(), candidates(), "somewhere")
	assert.Equal(t, []models.Recommendation{{ID: 2, Reason: ReasonDefault}}, recs)
}

func TestRecommend_RandomPickIsACandidate(t *testing.T) {
	e := NewEngine(logrus.New())
	valid := map[int]bool{1: true, 2: true, 3: true}

	for i := 0; i < 20; i++ {
		recs := e.Recommend(context.Background(), candidates(), "somewhere")
		require.Len(t, recs, 1)
		assert.True(t, valid[recs[0].ID])
	}
}

func TestRecommend_LLMSuccess(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, SystemPrompt, mock.AnythingOfType("string")).
		Return("```json\n[{\"id\": 3, \"reason\": \"quick noodles\"}, {\"id\": 1, \"reason\": \"closest\"}]\n```", nil)
	e := NewEngine(logrus.New(), WithLLM(llm))

	recs := e.Recommend(context.Background(), candidates(), "latitude 37.5665, longitude 126.9780")
	assert.Equal(t, []models.Recommendation{
		{ID: 3, Reason: "quick noodles"},
		{ID: 1, Reason: "closest"},
	}, recs)
	llm.AssertExpectations(t)

	prompt := llm.Calls[0].Arguments.String(2)
	assert.Contains(t, prompt, "latitude 37.5665, longitude 126.9780")
	assert.Contains(t, prompt, "id: 2, name: Sushi Ro")
	assert.Contains(t, prompt, "distance: 300m")
}

func TestRecommend_LLMErrorFallsBack(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("rate limited"))
	logger, hook := test.NewNullLogger()
	e := NewEngine(logger, WithLLM(llm), WithPicker(fixedPick(0)))

	recs := e.Recommend(context.Background(), candidates(), "somewhere")
	assert.Equal(t, []models.Recommendation{{ID: 1, Reason: ReasonFallback}}, recs)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "llm_error", hook.LastEntry().Data["cause"])
}

func TestRecommend_UnparseableFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "I would suggest Sushi Ro."},
		{"object", `{"id": 2, "reason": "nice"}`},
		{"unknown ids", `[{"id": 42, "reason": "made up"}]`},
		{"empty array", `[]`},
		{"string id", `[{"id": "2", "reason": "nice"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tt.response, nil)
			e := NewEngine(logrus.New(), WithLLM(llm), WithPicker(fixedPick(2)))

			recs := e.Recommend(context.Background(), candidates(), "somewhere")
			assert.Equal(t, []models.Recommendation{{ID: 3, Reason: ReasonFallback}}, recs)
		})
	}
}

func TestRecommend_TimeoutFallsBack(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded)
	e := NewEngine(logrus.New(), WithLLM(llm), WithTimeout(10*time.Millisecond), WithPicker(fixedPick(0)))

	recs := e.Recommend(context.Background(), candidates(), "somewhere")
	assert.Equal(t, []models.Recommendation{{ID: 1, Reason: ReasonFallback}}, recs)
}
