// Package hashnav implements a hash-fragment navigation controller for
// single-page applications.
//
// The engine provides:
//   - Route snapshots built from the address bar (path + raw and typed
//     parameter views)
//   - An asynchronous guard phase where any subscriber can veto a pending
//     navigation before it commits
//   - After-hooks and status/scroll observers with fault isolation
//   - Per-route scroll memory, captured on leave and replayed on return
//   - Native anchor tolerance: "#section1" scrolls to the element instead
//     of being hijacked as a route
//
// # Navigation lifecycle
//
// An address change (or a Push/Replace call) runs one cycle:
//
//	anchor? ──yes──▶ smooth-scroll to element, done
//	   │no
//	unchanged? ──yes──▶ done
//	   │no
//	guard phase ──any veto──▶ roll address back, error status
//	   │all approve
//	commit: previous←current, current←candidate,
//	        after-hooks, scroll restore, success status
//
// Guards run concurrently; the phase fails on the first veto while
// stragglers finish in the background. There is no built-in timeout: a
// guard that never settles hangs its cycle.
//
// # Usage
//
//	env := browserEnvironment()            // any hashnav.Environment
//	nav := hashnav.New(env)
//	defer nav.Destroy()
//
//	nav.SubscribeBefore(func(ctx context.Context, to, from route.Snapshot) error {
//	    if to.Path == "admin" && !authorized {
//	        return errors.New("admin requires login")
//	    }
//	    return nil
//	})
//	nav.SubscribeAfter(func(to, from route.Snapshot) {
//	    analytics.PageView(to.Path)
//	})
//
//	if nav.Push(ctx, "/dashboard?tab=usage") {
//	    // nav.CurrentRoute().Path == "dashboard"
//	}
//
// The environment (address bar, history stack, viewport) is an interface;
// navtest.FakeEnvironment drives the engine in tests and wsenv.Environment
// drives a real browser over a websocket bridge.
package hashnav
