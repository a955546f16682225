package dup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n      int
	clones *int
}

func (c counter) Clone() counter {
	*c.clones++

	return counter{n: c.n * 10, clones: c.clones}
}

type node struct {
	Name string
	Next *node
	tags []string
	meta map[string]any
}

func TestOf_Scalars(t *testing.T) {
	assert.Equal(t, 7, Of(7))
	assert.Equal(t, "str", Of("str"))
	assert.InDelta(t, 2.5, Of(2.5), 0)
	assert.True(t, Of(true))
}

func TestOf_SliceIsIndependent(t *testing.T) {
	orig := []int{1, 2, 3}
	cp := Of(orig)

	cp[0] = 99
	cp = append(cp, 4)

	assert.Equal(t, []int{1, 2, 3}, orig)
	assert.Equal(t, []int{99, 2, 3, 4}, cp)
}

func TestOf_MapIsIndependent(t *testing.T) {
	orig := map[string][]int{"a": {1}}
	cp := Of(orig)

	cp["a"][0] = 2
	cp["b"] = nil

	assert.Equal(t, map[string][]int{"a": {1}}, orig)
	assert.Len(t, cp, 2)
}

func TestOf_NilsStayNil(t *testing.T) {
	var (
		s []int
		m map[int]int
		p *int
		e error
	)

	assert.Nil(t, Of(s))
	assert.Nil(t, Of(m))
	assert.Nil(t, Of(p))
	assert.NoError(t, Of(e))
}

func TestOf_ExportedFieldsAreCopied(t *testing.T) {
	type wrapper struct {
		Items []int
		Attrs map[string][]int
	}

	orig := wrapper{Items: []int{1}, Attrs: map[string][]int{"k": {1}}}

	cp := Of(orig)
	cp.Items[0] = 2
	cp.Attrs["k"][0] = 2

	assert.Equal(t, []int{1}, orig.Items)
	assert.Equal(t, []int{1}, orig.Attrs["k"])
}

func TestOf_UnexportedFieldsAreAssigned(t *testing.T) {
	orig := node{
		Name: "a",
		tags: []string{"x"},
		meta: map[string]any{"k": 1},
	}

	cp := Of(orig)

	assert.Equal(t, "a", cp.Name)
	assert.Same(t, &orig.tags[0], &cp.tags[0])
	assert.Equal(t, orig.meta, cp.meta)
}

func TestOf_PointersAreShared(t *testing.T) {
	a := &node{Name: "a"}
	b := &node{Name: "b", Next: a}
	a.Next = b

	cp := Of(a)

	assert.Same(t, a, cp)

	pair := Of([2]*node{a, b})

	assert.Same(t, a, pair[0])
	assert.Same(t, b, pair[1])
}

func TestOf_SliceCycle(t *testing.T) {
	orig := []any{1, nil}
	orig[1] = orig

	cp := Of(orig)
	cp[0] = 2

	assert.Equal(t, 1, orig[0])
	inner, ok := cp[1].([]any)
	require.True(t, ok)
	assert.Equal(t, 2, inner[0])
}

func TestOf_ContextObservesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cp := Of(ctx)
	cancel()

	select {
	case <-cp.Done():
	case <-time.After(time.Second):
		t.Fatal("duplicate context not canceled")
	}

	assert.ErrorIs(t, cp.Err(), context.Canceled)
}

type guarded struct {
	mu sync.Mutex
	n  int
}

func TestOf_MutexPointerShared(t *testing.T) {
	g := &guarded{}
	g.mu.Lock()

	cp := Of(g)
	g.n = 3
	g.mu.Unlock()

	locked := make(chan struct{})

	go func() {
		cp.mu.Lock()
		defer cp.mu.Unlock()

		close(locked)
	}()

	select {
	case <-locked:
	case <-time.After(time.Second):
		t.Fatal("duplicate mutex stays locked")
	}

	assert.Equal(t, 3, cp.n)
}

func TestOf_UsesCloner(t *testing.T) {
	var calls int

	cp := Of(counter{n: 1, clones: &calls})

	assert.Equal(t, 10, cp.n)
	assert.Equal(t, 1, calls)

	nested := Of([]counter{{n: 2, clones: &calls}})

	assert.Equal(t, 20, nested[0].n)
	assert.Equal(t, 2, calls)
}

func TestOf_SharesFuncsAndChans(t *testing.T) {
	type holder struct {
		F  func() int
		Ch chan int
	}

	ch := make(chan int, 1)
	h := Of(holder{F: func() int { return 3 }, Ch: ch})

	assert.Equal(t, 3, h.F())
	assert.Equal(t, ch, h.Ch)
}

func TestOf_TimeIsValue(t *testing.T) {
	now := time.Now()
	cp := Of(now)

	assert.True(t, now.Equal(cp))
	assert.Equal(t, now.Location(), cp.Location())
}

func TestValue(t *testing.T) {
	assert.Nil(t, Value(nil))

	orig := map[string]any{"list": []any{1, "two"}}
	cp, ok := Value(orig).(map[string]any)
	require.True(t, ok)

	cp["list"].([]any)[0] = 0

	assert.Equal(t, 1, orig["list"].([]any)[0])
}
