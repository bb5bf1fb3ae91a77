package keyedlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSerializesSameKey(t *testing.T) {
	km := New()

	counter := 0
	const goroutines = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			km.Lock("patient-1")
			counter++
			km.Unlock("patient-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter, "increments under the same key must serialize")
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	km := New()

	km.Lock("patient-1")
	defer km.Unlock("patient-1")

	done := make(chan struct{})
	go func() {
		km.Lock("patient-2")
		km.Unlock("patient-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an unrelated key blocked")
	}
}
