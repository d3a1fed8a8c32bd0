// internal/browser/context.go
package browser

import "context"

// CombineContext derives a context from ctx1 that is also canceled when ctx2
// is. Values, including the chromedp target, come from ctx1 only.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)
	if ctx2.Err() != nil {
		cancel()
		return combined, cancel
	}
	stop := context.AfterFunc(ctx2, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
