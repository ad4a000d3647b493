package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerLedgerLastWriteWins(t *testing.T) {
	l := NewAnswerLedger()
	l.Set("q1", "first")
	l.Set("q1", "second")

	got, ok := l.Get("q1")
	assert.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, l.AnsweredCount())
	assert.True(t, l.Answered("q1"))
	assert.False(t, l.Answered("q2"))
}

func TestAnswerLedgerSnapshotIsACopy(t *testing.T) {
	l := NewAnswerLedger()
	l.Set("q1", "a")

	snap := l.Snapshot()
	snap["q1"] = "mutated"
	snap["q2"] = "new"

	got, _ := l.Get("q1")
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, l.AnsweredCount())
}

func TestAnswerLedgerConcurrentWrites(t *testing.T) {
	l := NewAnswerLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Set(fmt.Sprintf("q%d", n), "v")
			l.Snapshot()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, l.AnsweredCount())
}
