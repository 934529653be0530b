// Package gotimeout provides a high-frequency-safe timeout primitive: a
// single logical deadline per instance that survives being armed, moved and
// cancelled on every I/O activity without registering a new runtime timer
// each time.
//
// The package ships three interchangeable engines behind the [Timeout]
// contract: a lock-free engine over a persistent chain of reusable timer
// registrations, a lock-free engine over a single cached registration, and a
// mutex-guarded baseline. All of them amortize reset-heavy workloads by
// letting an already-registered timer wake early, observe that the deadline
// moved, and re-arm for the remainder instead of registering per call.
package gotimeout
