package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{
		APIKey:           "test-key",
		BaseURL:          server.URL,
		PremiumModel:     "premium-model",
		BudgetModel:      "budget-model",
		MaxRetries:       2,
		RetryBackoffBase: time.Millisecond,
	})
}

func completionBody(text string) string {
	payload := map[string]any{
		"id":    "resp-123",
		"model": "budget-model",
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func errorBody(message string) string {
	raw, _ := json.Marshal(map[string]any{"error": map[string]any{"message": message}})
	return string(raw)
}

func TestResolveModel(t *testing.T) {
	client := NewClient(Options{APIKey: "k", PremiumModel: "big", BudgetModel: "small"})

	model, err := client.ResolveModel(TierBudget, "")
	require.NoError(t, err)
	assert.Equal(t, "small", model)

	model, err = client.ResolveModel(TierPremium, "")
	require.NoError(t, err)
	assert.Equal(t, "big", model)

	model, err = client.ResolveModel(TierBudget, "override")
	require.NoError(t, err)
	assert.Equal(t, "override", model)

	_, err = client.ResolveModel(Tier("luxury"), "")
	require.Error(t, err)
	assert.Equal(t, CategoryInvalidRequest, CategoryOf(err))
}

func TestGenerateTextSuccess(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, completionBody("hello"))
	})

	resp, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "budget-model", resp.ModelUsed)
	assert.Equal(t, "resp-123", resp.RequestID)
	assert.Equal(t, 10, resp.InputTokens)
	assert.Equal(t, 5, resp.OutputTokens)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestGenerateTextEmptyChoicesIsValid(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","model":"budget-model","choices":[]}`)
	})

	resp, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Text)
}

func TestGenerateTextRetriesRateLimitThenSucceeds(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, errorBody("slow down"))
			return
		}
		fmt.Fprint(w, completionBody("ok"))
	})

	resp, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, calls)
}

func TestGenerateTextRetryBudgetExhausted(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, errorBody("boom"))
	})

	_, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, CategoryServer, CategoryOf(err))
	// Initial attempt + MaxRetries.
	assert.Equal(t, 3, calls)
}

func TestGenerateTextAuthFailureIsNotRetried(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, errorBody("bad key"))
	})

	_, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, CategoryAuth, CategoryOf(err))
	assert.Equal(t, 1, calls)
}

func TestGenerateTextAdaptsTokenLimitFieldName(t *testing.T) {
	var bodies []map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		if _, usesLegacy := body["max_tokens"]; usesLegacy {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, errorBody("Unsupported parameter: 'max_tokens'. Use 'max_completion_tokens' instead."))
			return
		}
		fmt.Fprint(w, completionBody("adapted"))
	})

	resp, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "adapted", resp.Text)
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "max_tokens")
	assert.Contains(t, bodies[1], "max_completion_tokens")
}

func TestGenerateTextDropsRejectedTemperature(t *testing.T) {
	temp := 0.7
	var bodies []map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		if _, hasTemp := body["temperature"]; hasTemp {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, errorBody("'temperature' is not supported with this model"))
			return
		}
		fmt.Fprint(w, completionBody("no temp"))
	})

	resp, err := client.GenerateText(context.Background(), Request{
		Tier:        TierBudget,
		UserText:    "hi",
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "no temp", resp.Text)
	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[1], "temperature")
}

func TestGenerateTextShapeAdaptationIsBounded(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Keeps claiming max_tokens is unsupported even after the flip, so
		// no further adaptation matches and the call fails closed.
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, errorBody("Unsupported parameter: 'max_tokens'."))
	})

	_, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, CategoryInvalidRequest, CategoryOf(err))
	// One original shape plus one adaptation; second rejection no longer
	// matches a flippable parameter.
	assert.Equal(t, 2, calls)
}

func TestGenerateTextMissingAPIKey(t *testing.T) {
	client := NewClient(Options{PremiumModel: "a", BudgetModel: "b"})
	_, err := client.GenerateText(context.Background(), Request{Tier: TierBudget, UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, CategoryAuth, CategoryOf(err))
}

func TestCategoryRetryability(t *testing.T) {
	assert.True(t, CategoryRateLimit.retryable())
	assert.True(t, CategoryNetwork.retryable())
	assert.True(t, CategoryServer.retryable())
	assert.False(t, CategoryAuth.retryable())
	assert.False(t, CategoryInvalidRequest.retryable())
	assert.False(t, CategoryUnknown.retryable())
}
