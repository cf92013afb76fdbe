package goroutine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
	done chan struct{}
}

func (l *captureLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
	l.mu.Unlock()
	close(l.done)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &captureLogger{done: make(chan struct{})}
	h := NewRecoveryHandler(log)

	h.SafeGo(func() { panic("boom") })
	<-log.done

	log.mu.Lock()
	defer log.mu.Unlock()
	assert.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0], "boom")
}

func TestWait_BlocksUntilTasksFinish(t *testing.T) {
	h := NewRecoveryHandler(&captureLogger{done: make(chan struct{})})
	release := make(chan struct{})
	h.SafeGo(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, h.Wait(context.Background()))
}

func TestWait_AfterPanic(t *testing.T) {
	log := &captureLogger{done: make(chan struct{})}
	h := NewRecoveryHandler(log)
	h.SafeGo(func() { panic("boom") })

	assert.NoError(t, h.Wait(context.Background()))
}
