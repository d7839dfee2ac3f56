package utils

import (
	"context"
	"runtime/debug"

	"github.com/squammynoodles/influenza/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers from panics so a single bad task
// cannot take down the consumer loop.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.PrintStack()
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still live, logging when it is
// not so long-running batch loops can stop early.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context canceled, stopping early", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

// Truncate returns s cut to at most max characters. The cut is a hard cutoff
// on runes, not bytes, so multi-byte text is never split mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
