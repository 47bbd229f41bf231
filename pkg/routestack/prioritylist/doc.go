// Package prioritylist provides an associative list that iterates its entries
// in priority order.
//
// Every entry is stored under a unique string key together with an integer
// priority. Iteration yields entries with the highest priority first. Entries
// that share a priority are ordered by insertion: the most recently inserted
// entry comes first (LIFO) unless the list was created WithFIFO.
//
// # Basic Usage
//
//	l := prioritylist.New[Route]()
//	l.Insert("home", homeRoute, 0)
//	l.Insert("admin", adminRoute, 10)
//	l.Add("fallback", fallbackRoute) // priority 0
//
//	for name, route := range l.All() {
//	    // admin, fallback, home
//	}
//
// Keyed operations (Get, Has, Remove, Len) are O(1). The ordered sequence is
// cached and only rebuilt, with a single sort, on the first ordered read after
// a mutation, so bulk inserts cost O(n log n) in total.
//
// # Re-insertion
//
// Inserting a key that already exists replaces its value and priority and
// treats it as a fresh insert: it moves to the front of its priority tier.
// SetPriority changes only the priority and keeps the original insertion
// position.
//
// # Iteration and Mutation
//
// All returns a restartable iterator. Each call to the iterator takes a
// snapshot of the current order; mutating the list during iteration does not
// affect a traversal that is already running.
//
// # Thread Safety
//
// List is not safe for concurrent use. Wrap it with NewSynchronized when it is
// shared between goroutines.
package prioritylist
