package jsonsmith_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/jsonsmith"
	"github.com/rickchristie/jsonsmith/internal/tt"
	"github.com/rickchristie/jsonsmith/schema"
)

func TestGenerate_Boolean(t *testing.T) {
	type input struct {
		response string
	}

	type expected struct {
		output string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "true",
			input:    input{response: "true"},
			expected: expected{output: "true"},
		},
		{
			name:     "false",
			input:    input{response: "false"},
			expected: expected{output: "false"},
		},
		{
			name:     "numeric one is true",
			input:    input{response: "1"},
			expected: expected{output: "true"},
		},
		{
			name:     "numeric zero is false",
			input:    input{response: "0"},
			expected: expected{output: "false"},
		},
		{
			name:     "leading whitespace accepted",
			input:    input{response: " true"},
			expected: expected{output: "true"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			oracle := tt.NewScriptedOracle().AddResponse(tc.input.response)
			session := jsonsmith.NewSession(oracle, schema.Boolean(), "generate a boolean")

			output, err := session.Generate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.expected.output, output)
		})
	}
}

func TestGenerate_Boolean_FallsBackToFalse(t *testing.T) {
	// An oracle that only ever produces noise must never fail a boolean:
	// after the retry budget the safe default wins.
	oracle := tt.NewScriptedOracle().WithFallbackResponse("banana?")
	session := jsonsmith.NewSession(oracle, schema.Boolean(), "generate a boolean")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "false", output)
	assert.Equal(t, 4, oracle.CallCount())
}

func TestGenerate_Number(t *testing.T) {
	oracle := tt.NewScriptedOracle().AddResponse("42,")
	session := jsonsmith.NewSession(oracle, schema.Number(), "generate a number")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42.0", output)
}

func TestGenerate_Number_Fractional(t *testing.T) {
	oracle := tt.NewScriptedOracle().AddResponse("3.25}")
	session := jsonsmith.NewSession(oracle, schema.Number(), "generate a number")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.25", output)
}

func TestGenerate_Number_ExhaustsRetries(t *testing.T) {
	oracle := tt.NewScriptedOracle().WithFallbackResponse("not a number ")
	session := jsonsmith.NewSession(oracle, schema.Number(), "generate a number")

	_, err := session.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonsmith.ErrGeneration)
	assert.Equal(t, 4, oracle.CallCount())
}

func TestGenerate_Number_EscalatesTemperature(t *testing.T) {
	oracle := tt.NewScriptedOracle().
		AddResponse("huh ").
		AddResponse("42,")
	session := jsonsmith.NewSession(oracle, schema.Number(), "generate a number").
		WithTemperature(1.0)

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42.0", output)

	require.Len(t, oracle.CapturedSettings, 2)
	assert.InDelta(t, 1.0, oracle.CapturedSettings[0].Temperature, 1e-9)
	assert.InDelta(t, 1.3, oracle.CapturedSettings[1].Temperature, 1e-9)
}

func TestGenerate_String(t *testing.T) {
	oracle := tt.NewScriptedOracle().AddResponse(`hello",`)
	session := jsonsmith.NewSession(oracle, schema.String(), "generate a string")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, output)
}

func TestGenerate_String_EscapedQuoteNotTerminator(t *testing.T) {
	oracle := tt.NewScriptedOracle().AddResponse(`say \"hi\"",`)
	session := jsonsmith.NewSession(oracle, schema.String(), "generate a string")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"say \"hi\""`, output)
}

func TestGenerate_String_DegradesToEmpty(t *testing.T) {
	// Two failed acquisitions: one retry with escalated temperature, then
	// the vacuous-but-valid empty string.
	oracle := tt.NewScriptedOracle()
	session := jsonsmith.NewSession(oracle, schema.String(), "generate a string").
		WithTemperature(1.0)

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `""`, output)
	assert.Equal(t, 2, oracle.CallCount())
	assert.InDelta(t, 1.3, oracle.CapturedSettings[1].Temperature, 1e-9)
}

func TestGenerate_String_RetriesAfterProtocolError(t *testing.T) {
	// The degenerate "" marker kills the acquisition; the string generator
	// retries at its own level.
	oracle := tt.NewScriptedOracle().
		AddSnapshots(`""`).
		AddResponse(`ok",`)
	session := jsonsmith.NewSession(oracle, schema.String(), "generate a string")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, output)
	assert.Equal(t, 2, oracle.CallCount())
}

func TestGenerate_Array_EmptySignal(t *testing.T) {
	// The emptiness probe sees the model heading for "]" and renders []
	// without ever committing to an element.
	oracle := tt.NewScriptedOracle().AddResponse("[]")
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list nothing")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", output)
	assert.Equal(t, 1, oracle.CallCount())
}

func TestGenerate_Array_TwoElements(t *testing.T) {
	oracle := tt.NewScriptedOracle().
		AddResponse(`["`).       // emptiness probe: model wants elements
		AddResponse(`math",`).   // first element
		AddResponse(`, "`).      // continuation probe: comma, keep going
		AddResponse(`science",`) // second element
		// continuation probe past the script: empty stream, no comma, stop.
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list courses")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	tt.AssertTextEqual(t, "[\n    \"math\",\n    \"science\"\n]", output)
	assert.Equal(t, 5, oracle.CallCount())

	// Probe calls carry the bounded token budgets.
	assert.Equal(t, 6, oracle.CapturedSettings[0].MaxNewTokens)
	assert.Equal(t, 0, oracle.CapturedSettings[1].MaxNewTokens)
	assert.Equal(t, 3, oracle.CapturedSettings[2].MaxNewTokens)
}

func TestGenerate_Array_ContinuationProbeStripsPrompt(t *testing.T) {
	oracle := tt.NewScriptedOracle().
		AddResponse(`["`).
		AddResponse(`math",`).
		AddResponse(`]`)
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list courses")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	tt.AssertTextEqual(t, "[\n    \"math\"\n]", output)

	// The continuation probe prompts against the buffer with trailing
	// quotes stripped, so the model is not biased toward closing the array
	// by quote-comma tokenization.
	require.Len(t, oracle.CapturedPrompts, 3)
	probePrompt := oracle.CapturedPrompts[2]
	assert.True(t, strings.HasSuffix(probePrompt, `math`),
		"probe prompt should end in the stripped buffer, got %q", probePrompt)
	assert.False(t, strings.HasSuffix(probePrompt, `math"`))
}

func TestGenerate_Array_ProbeTruncatesByRunes(t *testing.T) {
	// A comma in the third character of the probe response still means
	// another element, even when the preceding characters are multibyte.
	oracle := tt.NewScriptedOracle().
		AddResponse(`["`).
		AddResponse(`あ",`).
		AddResponse(`ああ, "`). // comma is the third rune, past the third byte
		AddResponse(`い",`).
		AddResponse(`]`)
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list words")

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	tt.AssertTextEqual(t, "[\n    \"あ\",\n    \"い\"\n]", output)
}

func TestGenerate_Array_BoundedByMaxLength(t *testing.T) {
	oracle := tt.NewScriptedOracle().
		AddResponse(`["`).
		AddResponse(`a",`).
		AddResponse(`,`).
		AddResponse(`b",`).
		AddResponse(`,`).
		AddResponse(`c",`).
		WithFallbackResponse(`,`) // always asks for more
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list things").
		WithMaxArrayLength(3)

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	tt.AssertTextEqual(t, "[\n    \"a\",\n    \"b\",\n    \"c\"\n]", output)
	// 1 emptiness probe + 3 elements + 2 continuation probes; the bound
	// stops the loop before a third probe.
	assert.Equal(t, 6, oracle.CallCount())
}

func TestGenerate_Array_MaxLengthClampedToOne(t *testing.T) {
	// Even with a zero bound a non-empty array carries its first element,
	// and only that one: no continuation probe runs.
	oracle := tt.NewScriptedOracle().
		AddResponse(`["`).
		AddResponse(`a",`).
		WithFallbackResponse(`,`)
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list things").
		WithMaxArrayLength(0)

	output, err := session.Generate(context.Background())
	require.NoError(t, err)
	tt.AssertTextEqual(t, "[\n    \"a\"\n]", output)
	assert.Equal(t, 2, oracle.CallCount())
}

func TestGenerate_Array_ProbeErrorPropagates(t *testing.T) {
	oracle := tt.NewScriptedOracle().AddSnapshots(`""`)
	session := jsonsmith.NewSession(oracle, schema.Array(schema.String()), "list things")

	_, err := session.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonsmith.ErrProtocol)
}
