package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	for _, status := range AllTaskStatuses {
		parsed, err := ParseTaskStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseTaskStatus("queued")
	assert.Error(t, err)

	_, err = ParseTaskStatus("")
	assert.Error(t, err)

	_, err = ParseTaskStatus("PENDING")
	assert.Error(t, err, "status values are case sensitive")
}

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from TaskStatus
		to   TaskStatus
		want bool
	}{
		{TaskStatusPending, TaskStatusRunning, true},
		{TaskStatusPending, TaskStatusCompleted, false},
		{TaskStatusPending, TaskStatusFailed, false},
		{TaskStatusRunning, TaskStatusCompleted, true},
		{TaskStatusRunning, TaskStatusFailed, true},
		{TaskStatusRunning, TaskStatusPending, false},
		{TaskStatusCompleted, TaskStatusRunning, false},
		{TaskStatusCompleted, TaskStatusFailed, false},
		{TaskStatusFailed, TaskStatusRunning, false},
		{TaskStatusFailed, TaskStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusRunning.IsTerminal())
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
}

func TestTaskStatus_Scan(t *testing.T) {
	var s TaskStatus

	require.NoError(t, s.Scan("running"))
	assert.Equal(t, TaskStatusRunning, s)

	require.NoError(t, s.Scan([]byte("failed")))
	assert.Equal(t, TaskStatusFailed, s)

	assert.Error(t, s.Scan("cancelled"))
	assert.Error(t, s.Scan(nil))
	assert.Error(t, s.Scan(42))
	assert.Equal(t, TaskStatusFailed, s, "failed scan must not overwrite the previous value")
}

func TestTaskStatus_Value(t *testing.T) {
	v, err := TaskStatusCompleted.Value()
	require.NoError(t, err)
	assert.Equal(t, "completed", v)

	_, err = TaskStatus("archived").Value()
	assert.Error(t, err)
}

func TestTaskStatus_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status TaskStatus `json:"status"`
	}{TaskStatusRunning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"running"}`, string(data))

	var out struct {
		Status TaskStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"completed"}`), &out))
	assert.Equal(t, TaskStatusCompleted, out.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"bogus"}`), &out))
}
