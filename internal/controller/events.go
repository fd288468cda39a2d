package controller

// TransitionPublisher receives every state change. Implementations should be
// lightweight and non-blocking; Publish runs with the lifecycle lock held and
// must not call back into the controller.
type TransitionPublisher interface {
	Publish(Transition)
}

// noopPublisher is the default; it drops transitions.
type noopPublisher struct{}

func (noopPublisher) Publish(Transition) {}
