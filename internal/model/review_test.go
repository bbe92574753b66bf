package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Zero(t, s.AverageRating)
	assert.NotNil(t, s.Reviews)

	s = Summarize([]Review{{Rating: 5}, {Rating: 4}, {Rating: 3}})
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 4.0, s.AverageRating, 1e-9)
}

func TestUser_HasBookmark(t *testing.T) {
	u := User{Bookmarks: []string{"a", "b"}}
	assert.True(t, u.HasBookmark("b"))
	assert.False(t, u.HasBookmark("c"))
	assert.False(t, User{}.HasBookmark("a"))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.True(t, User{Role: RoleAdmin}.IsAdmin())
}
