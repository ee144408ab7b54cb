package detect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) any {
	t.Helper()
	v, err := ParseJSON(text)
	require.NoError(t, err, text)
	return v
}

func TestVerify_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Match
	}{
		{"empty array", `[]`, []Match{}},
		{
			"two matches",
			`[{"issue":1,"likelihood":"high"},{"issue":2,"likelihood":"low","reason":"x"}]`,
			[]Match{
				{Issue: "1", Likelihood: "high"},
				{Issue: "2", Likelihood: "low", Reason: "x"},
			},
		},
		{
			"likelihood case kept",
			`[{"issue":7,"likelihood":"MEDIUM"}]`,
			[]Match{{Issue: "7", Likelihood: "MEDIUM"}},
		},
		{
			"non-string reason kept as JSON",
			`[{"issue":3,"likelihood":"low","reason":{"k":[1,2]}}]`,
			[]Match{{Issue: "3", Likelihood: "low", Reason: `{"k":[1,2]}`}},
		},
		{
			"null reason",
			`[{"issue":3,"likelihood":"low","reason":null}]`,
			[]Match{{Issue: "3", Likelihood: "low"}},
		},
		{
			"extra fields ignored",
			`[{"issue":4,"likelihood":"High","score":0.9}]`,
			[]Match{{Issue: "4", Likelihood: "High"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Verify(mustParse(t, tt.input))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.True(t, Valid(mustParse(t, tt.input)))
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare object", `{"issue":1,"likelihood":"high"}`},
		{"primitives", `[1,2,3]`},
		{"nested array", `[[{"issue":1,"likelihood":"high"}]]`},
		{"null element", `[null]`},
		{"missing issue", `[{"likelihood":"high"}]`},
		{"string issue", `[{"issue":"1","likelihood":"high"}]`},
		{"unknown likelihood", `[{"issue":1,"likelihood":"certain"}]`},
		{"missing likelihood", `[{"issue":1}]`},
		{"numeric likelihood", `[{"issue":1,"likelihood":3}]`},
		{"one bad element", `[{"issue":1,"likelihood":"high"},{"issue":2,"likelihood":"maybe"}]`},
		{"string", `"[]"`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Verify(mustParse(t, tt.input))
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestVerify_GoValues(t *testing.T) {
	// Values decoded without UseNumber, or built by hand.
	v := []any{
		map[string]any{"issue": float64(12), "likelihood": "low"},
		map[string]any{"issue": 13, "likelihood": "high"},
	}
	got, ok := Verify(v)
	require.True(t, ok)
	assert.Equal(t, json.Number("12"), got[0].Issue)
	assert.Equal(t, json.Number("13"), got[1].Issue)

	assert.False(t, Valid(nil))
	assert.False(t, Valid([]any{map[string]any(nil)}))
	assert.False(t, Valid([]map[string]any{{"issue": 1, "likelihood": "high"}}))
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON(" [ {\"issue\": 5, \"likelihood\": \"low\"} ] \n")
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("5"), arr[0].(map[string]any)["issue"])

	for _, bad := range []string{"", "not json", "[1,", "[] extra", "```json\n[]\n```"} {
		_, err := ParseJSON(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestMatch_IssueNumber(t *testing.T) {
	n, ok := Match{Issue: "42"}.IssueNumber()
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = Match{Issue: "4.5"}.IssueNumber()
	assert.False(t, ok)
}

func TestLikelihood(t *testing.T) {
	assert.True(t, Likelihood("HiGh").Valid())
	assert.False(t, Likelihood("").Valid())
	assert.Equal(t, LikelihoodMedium, Likelihood("Medium").Canonical())

	assert.True(t, MeetsThreshold("HIGH", "medium"))
	assert.False(t, MeetsThreshold("low", "medium"))
	assert.False(t, MeetsThreshold("high", "none"))
	assert.False(t, MeetsThreshold("high", ""))

	assert.Equal(t, LikelihoodHigh, HighestLikelihood([]Match{
		{Likelihood: "low"}, {Likelihood: "High"}, {Likelihood: "medium"},
	}))
	assert.Equal(t, Likelihood(""), HighestLikelihood(nil))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[]`, stripFences("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripFences("  []  "))
	assert.Equal(t, "[1]", stripFences("```\n[1]\n```\n"))
}
