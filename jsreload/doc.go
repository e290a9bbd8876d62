// Package jsreload hot reloads JavaScript modules running on goja while
// keeping their state.
//
// A module script defines setup(), which builds its state with the ref and
// computed bindings and returns it as an object:
//
//	function setup() {
//	  const count = ref(0)
//	  const doubled = computed(() => count.value * 2, [count])
//	  return { count, doubled, inc() { count.value++ } }
//	}
//
// Reload captures the running version's state through a state.Keeper,
// evaluates the new source in a fresh runtime and revives the snapshot onto
// the object the new setup() returns. Watch drives Reload from file changes.
//
// Plain values and containers returned by setup() are converted to Go
// values, so closures in the new version only observe restored data that
// lives in cells.
package jsreload
