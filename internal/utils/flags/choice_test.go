package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console", "logfmt"},
			description:    "Log output format.",
			expectedOutput: "`<STRUCTURED|console|logfmt>` Log output format.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "Minimum log level.",
			expectedOutput: "`<debug|INFO|warn|error>` Minimum log level.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "alpha",
			choices:        []string{"alpha", "beta"},
			expectedOutput: "`<ALPHA|beta>`",
		},
		{
			name:           "DuplicateAndBlankChoicesIgnored",
			defaultChoice:  "beta",
			choices:        []string{"beta", " ", "Beta", "alpha"},
			description:    "Select between options.",
			expectedOutput: "`<BETA|alpha>` Select between options.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestNormalizeChoice(t *testing.T) {
	choices := []string{"structured", "console", "logfmt"}

	normalized, normalizeError := NormalizeChoice("log-format", " LogFmt ", choices)
	require.NoError(t, normalizeError)
	require.Equal(t, "logfmt", normalized)

	_, invalidError := NormalizeChoice("log-format", "xml", choices)
	require.EqualError(t, invalidError, `invalid --log-format "xml", expected one of structured, console, logfmt`)
}
