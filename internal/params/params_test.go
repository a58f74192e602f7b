package params

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlens/internal/models"
)

func TestSubstituteReplacesKnownParameters(t *testing.T) {
	out := Substitute("Hello {name}, today is {date}.", map[string]string{
		"name": "Ada",
		"date": "2026-08-28",
	})
	assert.Equal(t, "Hello Ada, today is 2026-08-28.", out)
}

func TestSubstituteLeavesUnknownParametersLiteral(t *testing.T) {
	out := Substitute("Hello {name}, {missing} stays.", map[string]string{
		"name": "Ada",
	})
	assert.Equal(t, "Hello Ada, {missing} stays.", out)
}

func TestSubstituteEscapedBraces(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{"{{x}}", "{x}"},
		{"{{name}}", "{name}"},
		{"a {{b}} c", "a {b} c"},
		{"{{", "{"},
		{"}}", "}"},
	}

	for _, tc := range cases {
		out := Substitute(tc.template, map[string]string{"x": "no", "name": "no", "b": "no"})
		assert.Equal(t, tc.want, out, "template %q", tc.template)
	}
}

func TestSubstituteEscapedBracesNextToParameters(t *testing.T) {
	out := Substitute("{{\"query\": \"{query}\"}}", map[string]string{"query": "rated only"})
	assert.Equal(t, `{"query": "rated only"}`, out)
}

func TestParseParameters(t *testing.T) {
	names := ParseParameters("Hello {name}, today is {date}. {{literal}}")
	assert.Equal(t, []string{"date", "name"}, names)
}

func TestParseParametersDistinctAndSorted(t *testing.T) {
	names := ParseParameters("{Zeta} {alpha} {Zeta} {alpha}")
	assert.Equal(t, []string{"alpha", "Zeta"}, names)
}

func TestParseParametersIgnoresInvalidNames(t *testing.T) {
	names := ParseParameters("{not a name} {valid_one}")
	assert.Equal(t, []string{"valid_one"}, names)
}

func TestResolveSources(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)
	thread := models.ThreadRecord{"thread_id": "t-1"}
	pair := &models.QAPair{ThreadID: "t-1"}

	resolved, err := Resolve(map[string]Value{
		"note":   {Source: SourceCustom, Text: "hand written"},
		"today":  {Source: SourceCurrentDate},
		"now":    {Source: SourceTimestamp},
		"thread": {Source: SourceThread},
		"pair":   {Source: SourceQAPair},
	}, thread, pair, now)
	require.NoError(t, err)

	assert.Equal(t, "hand written", resolved["note"])
	assert.Equal(t, "2026-08-28", resolved["today"])
	assert.Equal(t, "2026-08-28T12:30:00Z", resolved["now"])
	assert.Contains(t, resolved["thread"], `"thread_id":"t-1"`)
	assert.Contains(t, resolved["pair"], `"thread_id":"t-1"`)
}

func TestResolveMissingThread(t *testing.T) {
	_, err := Resolve(map[string]Value{
		"thread": {Source: SourceThread},
	}, nil, nil, time.Now())
	require.Error(t, err)
}
