package activity

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndListNewestFirst(t *testing.T) {
	f := NewFeed(8)
	f.Push(Event{Operation: "create", Cluster: "a"})
	f.Push(Event{Operation: "destroy", Cluster: "b"})

	events := f.List()
	require.Len(t, events, 2)
	assert.Equal(t, "destroy", events[0].Operation)
	assert.Equal(t, "create", events[1].Operation)
	assert.False(t, events[0].Time.IsZero())
}

func TestFeedEvictsOldest(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 5; i++ {
		f.Push(Event{Operation: fmt.Sprintf("op-%d", i)})
	}

	events := f.List()
	require.Len(t, events, 3)
	assert.Equal(t, "op-4", events[0].Operation)
	assert.Equal(t, "op-2", events[2].Operation)
}

func TestFeedConcurrentPush(t *testing.T) {
	f := NewFeed(64)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				f.Push(Event{Operation: "op"})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, f.List(), 64)
}
