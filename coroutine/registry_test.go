package coroutine_test

import (
	"testing"

	"github.com/plus3/tempo/coroutine"
	"github.com/stretchr/testify/assert"
)

func TestRegistryPauseResume(t *testing.T) {
	r := coroutine.NewRegistry()
	var stepsA, stepsB int
	a := coroutine.NewCoroutine(forever(&stepsA), false)
	b := coroutine.NewCoroutine(forever(&stepsB), false)
	done := coroutine.NewCoroutine(coroutine.Do(func() {}), false)
	done.Update(frame)
	r.Add(a)
	r.Add(b)
	r.Add(done)
	r.Add(a)
	assert.Equal(t, 3, r.Len())

	r.PauseAll()
	assert.False(t, a.Active)
	assert.False(t, b.Active)
	a.Update(frame)
	b.Update(frame)
	assert.Zero(t, stepsA+stepsB)

	r.ResumeAll()
	assert.True(t, a.Active)
	assert.True(t, b.Active)
	assert.False(t, done.Active, "finished coroutine was resumed")

	// Coroutines deactivated some other way stay inactive.
	a.Active = false
	r.PauseAll()
	r.ResumeAll()
	assert.False(t, a.Active)
	assert.True(t, b.Active)
}

func TestRegistryCancelAll(t *testing.T) {
	r := coroutine.NewRegistry()
	var steps int
	a := coroutine.NewCoroutine(forever(&steps), false)
	b := coroutine.NewCoroutine(forever(&steps), false)
	r.Add(a)
	r.Add(b)
	r.PauseAll()

	r.CancelAll()
	assert.True(t, a.Finished)
	assert.True(t, b.Finished)

	r.ResumeAll()
	assert.False(t, a.Active)
	assert.False(t, b.Active)
}

func TestRegistryRemoveAndPrune(t *testing.T) {
	r := coroutine.NewRegistry()
	slots := make([]coroutine.Coroutine, 3)
	for i := range slots {
		r.Add(&slots[i])
	}

	r.Remove(&slots[0])
	r.Remove(&slots[0])
	assert.Equal(t, 2, r.Len())

	// A released slot no longer carries its registration.
	slots[1] = coroutine.Coroutine{}
	assert.Equal(t, 1, r.Prune())
	assert.Equal(t, 1, r.Len())

	r.Clear()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Prune())
}

func TestRegistryPauseFollowsCopies(t *testing.T) {
	r := coroutine.NewRegistry()
	var steps int
	slots := make([]coroutine.Coroutine, 2)
	slots[0].Start(forever(&steps))
	r.Add(&slots[0])
	slots[0].Update(frame)

	r.PauseAll()

	// Moving the coroutine to another slot carries the pause with it.
	slots[1] = slots[0]
	slots[0] = coroutine.Coroutine{}
	r.Add(&slots[1])
	assert.Equal(t, 1, r.Prune())
	slots[1].Update(frame)
	assert.Equal(t, 1, steps)

	r.ResumeAll()
	assert.True(t, slots[1].Active)
	slots[1].Update(frame)
	assert.Equal(t, 2, steps)
}

func TestRegistryResumesCopyAddedAfterResume(t *testing.T) {
	r := coroutine.NewRegistry()
	var steps int
	slots := make([]coroutine.Coroutine, 2)
	slots[0].Start(forever(&steps))
	r.Add(&slots[0])

	r.PauseAll()
	slots[1] = slots[0]
	slots[0] = coroutine.Coroutine{}
	r.ResumeAll()

	assert.True(t, slots[1].Paused())
	r.Add(&slots[1])
	assert.False(t, slots[1].Paused())
	slots[1].Update(frame)
	assert.Equal(t, 1, steps)
}

func TestRegistryPauseHoldsAcrossRestart(t *testing.T) {
	r := coroutine.NewRegistry()
	var first, second int
	c := coroutine.NewCoroutine(forever(&first), false)
	idle := &coroutine.Coroutine{}
	r.Add(c)
	r.Add(idle)
	r.PauseAll()

	c.Replace(forever(&second))
	idle.Start(forever(&second))
	assert.False(t, c.Active)
	assert.False(t, idle.Active)
	c.Update(frame)
	idle.Update(frame)
	assert.Zero(t, first+second)

	r.ResumeAll()
	assert.True(t, c.Active)
	assert.True(t, idle.Active)
	c.Update(frame)
	idle.Update(frame)
	assert.Equal(t, 2, second)
}

func TestRegistryRemoveLiftsPause(t *testing.T) {
	r := coroutine.NewRegistry()
	var steps int
	c := coroutine.NewCoroutine(forever(&steps), false)
	r.Add(c)
	r.PauseAll()
	r.Remove(c)
	assert.False(t, c.Paused())
	assert.True(t, c.Active)
}
