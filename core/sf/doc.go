// Package sf is a typed wrapper around golang.org/x/sync/singleflight.
//
// The remote client resolves a handler name at most once per message type
// at a time, however many goroutines send that type concurrently:
//
//	names := sf.New[string]()
//	name, err := names.DoContext(ctx, key, func() (string, error) {
//	    return lookupHandlerName(ctx, key)
//	})
package sf
