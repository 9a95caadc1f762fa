package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_ByModelName(t *testing.T) {
	testCases := []struct {
		model   string
		adapter string
	}{
		{"llama-2-13b-chat", "llama-2"},
		{"codellama-7b-instruct", "llama-2"},
		{"qwen-14b-chat", "chatml"},
		{"Yi-34B-Chat", "chatml"},
		{"vicuna-13b-v1.5", "vicuna"},
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			adapter, err := Resolve(tc.model, "")
			assert.NoError(t, err)
			assert.Equal(t, tc.adapter, adapter.Name())
		})
	}
}

func TestResolve_ExplicitFormatWins(t *testing.T) {
	adapter, err := Resolve("llama-2-7b-chat", "chatml")
	assert.NoError(t, err)
	assert.Equal(t, "chatml", adapter.Name())
}

func TestResolve_UnknownModel(t *testing.T) {
	_, err := Resolve("totally-unknown-model", "")
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestResolve_UnknownFormat(t *testing.T) {
	// an unknown explicit format fails even when the model name would
	// have matched on its own
	_, err := Resolve("llama-2-7b-chat", "no-such-format")
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestResolve_Deterministic(t *testing.T) {
	first, err := Resolve("Qwen-7B-Chat", "")
	assert.NoError(t, err)
	second, err := Resolve("qwen-7b-chat", "")
	assert.NoError(t, err)
	assert.Same(t, first, second)
}
