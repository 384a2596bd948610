package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioFiles(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Flow))
		})
	}
}

func TestMergeEndToEndGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/merge_end_to_end.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunIsDeterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/isolation.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRunReportsFailedExpectations(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectations
description: "Every expectation here is wrong"
flow:
  - op: update
    settings: { theme: dark }
    expect:
      settings: { theme: light }
  - op: update
    settings: { nested: { a: 1 } }
  - op: get
    path: /missing
  - op: bootstrap
    expect:
      seeded: true
assertions:
  - type: record_count
    count: 5
  - type: trace_count
    op: update
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], `settings["theme"]`)
	assert.Contains(t, result.Errors[1], "unexpected validation error")
	assert.Contains(t, result.Errors[2], "unexpected not_found error")
	assert.Contains(t, result.Errors[3], "expected seeded=true")
	assert.Contains(t, result.Errors[4], "expected 5 records, got 1")
	assert.Contains(t, result.Errors[5], "expected 1 update steps, got 2")
}

func TestRunSameRecordMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: different_records
description: "Two paths yield two records"
flow:
  - op: load
    path: /a
  - op: load
    path: /b
assertions:
  - type: same_record
    steps: [0, 1]
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "rec-0002")
}

func TestRunTracksClock(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: clock
description: "updated_at follows the fake clock"
flow:
  - op: load
  - op: advance
    advance: 90s
  - op: update
    settings: {}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "2026-01-01T00:00:00Z", result.Trace[0].UpdatedAt)
	assert.Equal(t, "2026-01-01T00:01:30Z", result.Trace[2].UpdatedAt)
}
