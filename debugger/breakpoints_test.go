package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakpointRegistry(t *testing.T) {
	r := NewBreakpointRegistry()
	assert.Empty(t, r.List())
	assert.False(t, r.Contains("transfer"))

	r.Add("transfer")
	r.Add("mint")
	r.Add("transfer") // idempotent
	assert.True(t, r.Contains("transfer"))
	assert.Equal(t, []string{"mint", "transfer"}, r.List())

	assert.True(t, r.Remove("transfer"))
	assert.False(t, r.Contains("transfer"))
	assert.Equal(t, []string{"mint"}, r.List())
}

func TestBreakpointRemoveAbsent(t *testing.T) {
	r := NewBreakpointRegistry()
	r.Add("mint")

	assert.False(t, r.Remove("never_added"))
	assert.Equal(t, []string{"mint"}, r.List(), "registry unchanged by absent removal")
}
