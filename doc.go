// Package hooks re-invokes plain component functions once per render while
// keeping a private, call-order-addressed sequence of hook slots for every
// mounted instance.
//
// A component receives a *Frame and calls hooks on it in the same order on
// every pass:
//
//	counter := func(f *hooks.Frame) string {
//		count, setCount := hooks.UseState(f, 0)
//		hooks.UseEffect(f, func() hooks.Cleanup {
//			fmt.Println("count is", count)
//			return nil
//		}, hooks.On(count))
//		return fmt.Sprintf("clicked %d times", count)
//	}
//
//	inst, err := hooks.Mount(ctx, hooks.New(), counter, renderer, "root")
//
// Calling setCount.Set stores the value and renders the instance again.
// Effects are handed to the runtime's Scheduler once the output commits.
package hooks
