package internal

// Next resumes the remainder of the middleware stack.
// A middleware may call it at most once; the chain composer enforces this.
type Next func() error

// Middleware processes a request through the Context and may delegate
// downstream by calling next. Not calling next short-circuits the stack.
//
// Example:
//
//	func NoCache(c internal.Context, next internal.Next) error {
//	    if err := c.SetHeader("Cache-Control", "no-store"); err != nil {
//	        return err
//	    }
//	    return next()
//	}
type Middleware func(c Context, next Next) error

// Compose flattens an ordered list of middlewares into one.
// The composed middleware runs the list in order; each frame's next invokes
// the following entry, and the outer continuation runs when the list is
// exhausted. Each invocation carries its own cursor, so the composed value
// is safe for concurrent requests.
//
// Calling next more than once from the same frame returns
// ErrNextCalledTwice without invoking any later middleware again.
func Compose(mws ...Middleware) Middleware {
	return func(c Context, outer Next) error {
		// Deepest frame entered so far. Strictly monotonic: a frame whose
		// index is not past the cursor has already run.
		cursor := -1

		var dispatch func(i int) error
		dispatch = func(i int) error {
			if i <= cursor {
				return ErrNextCalledTwice
			}
			cursor = i
			if i == len(mws) {
				if outer == nil {
					return nil
				}
				return outer()
			}
			return mws[i](c, func() error { return dispatch(i + 1) })
		}

		return dispatch(0)
	}
}
