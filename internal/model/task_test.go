package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskapi/internal/errors"
)

func TestParsePriority(t *testing.T) {
	for _, raw := range []string{"Low", "Medium", "High"} {
		p, err := ParsePriority(raw)
		require.NoError(t, err)
		assert.Equal(t, Priority(raw), p)
	}

	for _, raw := range []string{"", "low", "Urgent"} {
		_, err := ParsePriority(raw)
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, "priority", verr.Field)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("Done")
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
	assert.Equal(t, `"Done" is not a valid choice.`, verr.Message)
}

func TestTask_ToggleComplete(t *testing.T) {
	task := &Task{Status: StatusPending}

	task.ToggleComplete()
	assert.True(t, task.IsCompleted)
	assert.Equal(t, StatusCompleted, task.Status)

	task.ToggleComplete()
	assert.False(t, task.IsCompleted)
	assert.Equal(t, StatusPending, task.Status)
}

func TestTask_MarkIncomplete(t *testing.T) {
	task := &Task{IsCompleted: true, Status: StatusCompleted}

	task.MarkIncomplete()
	task.MarkIncomplete()
	assert.False(t, task.IsCompleted)
	assert.Equal(t, StatusPending, task.Status)
}

func TestTaskPatch_ApplyOnlyPresentFields(t *testing.T) {
	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	task := &Task{
		Title:      "Clean",
		DueDate:    due,
		Priority:   PriorityLow,
		Status:     StatusPending,
		CategoryID: 1,
		Category:   &TaskCategory{ID: 1, Name: "Home"},
	}

	title := "Clean kitchen"
	completed := true
	categoryID := uint(2)
	TaskPatch{Title: &title, IsCompleted: &completed, CategoryID: &categoryID}.Apply(task)

	assert.Equal(t, "Clean kitchen", task.Title)
	assert.Equal(t, due, task.DueDate)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.True(t, task.IsCompleted)
	assert.Equal(t, StatusPending, task.Status, "status is not derived from is_completed")
	assert.Equal(t, uint(2), task.CategoryID)
	assert.Nil(t, task.Category)
}

func TestUserPatch_Apply(t *testing.T) {
	u := &User{Username: "alice", Email: "alice@example.com", PasswordHash: "old"}
	hash := "new"
	UserPatch{PasswordHash: &hash}.Apply(u)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "new", u.PasswordHash)
}
