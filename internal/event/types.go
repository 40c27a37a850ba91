// Package event provides a small generic publish/subscribe bus used to
// fan watch-loop events out to the status server and other listeners.
package event

// Event is implemented by values that carry a type tag. Buses over
// tagged events support type-filtered subscriptions.
type Event interface {
	Type() string
}
