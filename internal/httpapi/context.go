package httpapi

import "context"

// baseCtx is cancelled on daemon shutdown so in-flight generations stop
// instead of blocking the server's drain.
var baseCtx = context.Background()

// SetBaseContext installs the shutdown context generations are bound to.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		baseCtx = context.Background()
		return
	}
	baseCtx = ctx
}

// joinContexts derives a context from a that is additionally cancelled when
// b is done, so a generation observes both the client disconnect and daemon
// shutdown. The returned cancel must be called when the handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
