package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateEmplaceIdempotent(t *testing.T) {
	p := newTestPddl(t)
	var s State

	assert.True(t, s.Emplace("clear", objs(t, p, "A")), "first insert reports change")
	assert.False(t, s.Emplace("clear", objs(t, p, "A")), "second insert is a no-op")
	assert.Equal(t, 1, s.Len())
}

func TestStateEraseIdempotent(t *testing.T) {
	p := newTestPddl(t)
	s := NewState(NewProposition("clear", objs(t, p, "A")))

	assert.False(t, s.Erase(NewProposition("clear", objs(t, p, "B"))), "erasing an absent proposition is a no-op")
	assert.True(t, s.Erase(NewProposition("clear", objs(t, p, "A"))))
	assert.False(t, s.Erase(NewProposition("clear", objs(t, p, "A"))))
	assert.Equal(t, 0, s.Len())
}

func TestStatePropositionOrderSensitive(t *testing.T) {
	p := newTestPddl(t)
	s := NewState(NewProposition("on", objs(t, p, "A", "B")))

	assert.True(t, s.Contains(NewProposition("on", objs(t, p, "A", "B"))))
	assert.False(t, s.Contains(NewProposition("on", objs(t, p, "B", "A"))))
	assert.True(t, s.ContainsCall("on", objs(t, p, "A", "B")))
}

func TestStateCloneIsIndependent(t *testing.T) {
	p := newTestPddl(t)
	s := NewState(NewProposition("clear", objs(t, p, "A")))
	c := s.Clone()

	c.Emplace("clear", objs(t, p, "B"))
	c.Erase(NewProposition("clear", objs(t, p, "A")))

	assert.Equal(t, "{clear(A)}", s.String())
	assert.Equal(t, "{clear(B)}", c.String())
	assert.False(t, s.Equal(c))
	assert.True(t, s.Equal(s.Clone()))
}

func TestStateRendering(t *testing.T) {
	p := newTestPddl(t)
	s := p.InitialState()

	assert.Equal(t, "{clear(A), clear(C), handempty(), on(A, B), on(B, table)}", s.String())
	assert.Equal(t, []string{"clear(A)", "clear(C)", "handempty()", "on(A, B)", "on(B, table)"}, s.Keys())
	assert.Len(t, s.Propositions(), 5)
	assert.Equal(t, "{}", State{}.String())
}

func TestStateDiff(t *testing.T) {
	p := newTestPddl(t)
	before := p.InitialState()
	after := before.Clone()
	after.Erase(NewProposition("clear", objs(t, p, "A")))
	after.Emplace("clear", objs(t, p, "B"))

	added, removed := before.Diff(after)
	assert.Equal(t, []string{"clear(B)"}, added)
	assert.Equal(t, []string{"clear(A)"}, removed)
}

func TestPropositionArgsAreCopied(t *testing.T) {
	p := newTestPddl(t)
	args := objs(t, p, "A", "B")
	prop := NewProposition("on", args)
	args[0] = obj(t, p, "C")

	assert.Equal(t, "on(A, B)", prop.String())
	got := prop.Args()
	got[1] = obj(t, p, "C")
	assert.Equal(t, "on(A, B)", prop.String())
	assert.Equal(t, 2, prop.Arity())
	assert.True(t, prop.Equal(NewProposition("on", objs(t, p, "A", "B"))))
	assert.False(t, prop.Equal(NewProposition("on", objs(t, p, "A"))))
}

func TestStateComparesPropositionsExactly(t *testing.T) {
	p := newTestPddl(t)
	location, _ := p.Types().Lookup("location")
	s := NewState(NewProposition("clear", objs(t, p, "A")))

	// Same rendering, different object: A as a plain location.
	other := NewProposition("clear", []Object{NewObject("A", location)})
	assert.Equal(t, "clear(A)", other.String())
	assert.False(t, s.Contains(other))
	assert.False(t, s.Equal(NewState(other)))
	assert.True(t, s.Equal(NewState(NewProposition("clear", objs(t, p, "A")))))
}
