package push

import "errors"

// Sentinel errors for push handling.
var (
	// ErrQueueFull indicates a push was dropped because the dispatch queue is full.
	ErrQueueFull = errors.New("push: dispatch queue full")

	// ErrDispatcherStopped indicates a push arrived after Stop.
	ErrDispatcherStopped = errors.New("push: dispatcher stopped")

	// ErrRegistryEmpty indicates Subscribe was called before any equipment was loaded.
	ErrRegistryEmpty = errors.New("push: no equipment loaded, load the registry before subscribing")

	// ErrInvalidPayload indicates a push body that is not a JSON object.
	ErrInvalidPayload = errors.New("push: invalid payload")
)
