package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_Enabled(t *testing.T) {
	assert.False(t, NewOpenAI("", "", 0).Enabled())
	assert.True(t, NewOpenAI("sk-test", "", 0).Enabled())
}

func TestOpenAI_AnswerWithoutKey(t *testing.T) {
	client := NewOpenAI("", "", 0)

	_, err := client.Answer(context.Background(), "question", PromptContext{})
	assert.Error(t, err)
}

func TestOpenAI_Answer(t *testing.T) {
	var gotAuth string
	var gotRequest chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Revenue is steady. Run a promo."}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAI("sk-test", "gpt-4o-mini", 5*time.Second)
	client.SetBaseURL(server.URL)

	pc := PromptContext{
		Metrics: []LabelValue{{Label: "Total revenue", Value: "$100"}},
		Actions: []string{"Run a weekend promo on top-selling items to sustain momentum."},
	}
	answer, err := client.Answer(context.Background(), "how are sales?", pc)
	require.NoError(t, err)
	assert.Equal(t, "Revenue is steady. Run a promo.", answer)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotRequest.Model)
	require.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "user", gotRequest.Messages[0].Role)
	assert.Contains(t, gotRequest.Messages[0].Content, "how are sales?")
	assert.Contains(t, gotRequest.Messages[0].Content, "Total revenue")
	assert.Equal(t, 0.2, gotRequest.Temperature)
}

func TestOpenAI_AnswerAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Incorrect API key provided", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	client := NewOpenAI("sk-bad", "", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.Answer(context.Background(), "question", PromptContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestOpenAI_AnswerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewOpenAI("sk-test", "", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.Answer(context.Background(), "question", PromptContext{})
	assert.Error(t, err)
}

func TestOpenAI_Defaults(t *testing.T) {
	client := NewOpenAI("sk-test", "", 0)
	assert.Equal(t, "gpt-4o-mini", client.model)
	assert.NotNil(t, client.httpClient)
}
