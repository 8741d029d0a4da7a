package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	assert.NotNil(t, r.FinalState)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResultTraces(t *testing.T) {
	r := NewResult()
	r.AddStepTrace(TraceEvent{Seq: 1, Call: "noop()"})
	r.AddFailureTrace("bad()", "ACTION_NOT_FOUND")

	assert.Len(t, r.Trace, 2)
	assert.False(t, r.Trace[0].Failed())
	assert.True(t, r.Trace[1].Failed())
	assert.Equal(t, "ACTION_NOT_FOUND", r.Trace[1].Error)
}
