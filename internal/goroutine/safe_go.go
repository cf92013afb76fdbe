package goroutine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
)

// PanicLogger принимает сообщение о перехваченной panic.
type PanicLogger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler запускает фоновые задачи: panic логируется и не роняет процесс,
// а Wait позволяет дождаться задач при остановке сервера.
type RecoveryHandler struct {
	logger PanicLogger
	wg     sync.WaitGroup
}

func NewRecoveryHandler(logger PanicLogger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает fn в отдельной горутине.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	rh.wg.Add(1)
	go func() {
		defer rh.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// Wait блокируется, пока не завершатся все задачи или не истечёт ctx.
func (rh *RecoveryHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		rh.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logrusLogger пишет в глобальный логгер, который может быть переинициализирован после старта.
type logrusLogger struct{}

func (logrusLogger) Errorf(format string, args ...interface{}) {
	logger.WithComponent("goroutine").Errorf(format, args...)
}

var DefaultRecoveryHandler = NewRecoveryHandler(logrusLogger{})

func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// Wait ждёт фоновые задачи DefaultRecoveryHandler.
func Wait(ctx context.Context) error {
	return DefaultRecoveryHandler.Wait(ctx)
}
