package engine

import (
	"fmt"
	"runtime/debug"

	"hy2core/pkg/hy2"
)

// SafeGo runs fn on a new goroutine. A panic is reported to cb as an error
// log plus a "panic" event and does not take the process down.
func SafeGo(cb *Callbacks, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reportPanic(cb, name, r)
			}
		}()
		fn()
	}()
}

func reportPanic(cb *Callbacks, name string, r any) {
	if cb == nil {
		return
	}
	cb.Errorf("panic in %s: %v\n%s", name, r, debug.Stack())
	cb.EmitJSON(hy2.EventPanic, map[string]string{"msg": "panic recovered", "where": name, "detail": fmt.Sprint(r)})
}
