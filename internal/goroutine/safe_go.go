package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/escrow-arbitration/internal/logger"
)

// SafeGo запускает именованную горутину с перехватом panic.
// Имя попадает в лог и позволяет найти источник паники без stack-дайвинга.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// SafeGoWithContext — то же, но функция получает контекст вызывающего.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer recoverPanic(name)
		fn(ctx)
	}()
}

func recoverPanic(name string) {
	r := recover()
	if r == nil {
		return
	}
	if logger.Log != nil {
		logger.Log.WithField("goroutine", name).
			Errorf("паника в горутине: %v\n%s", r, debug.Stack())
	}
}
