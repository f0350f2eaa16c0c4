package login

import (
	"context"

	"github.com/nfrund/loginflow/internal/hub"
	"github.com/nfrund/loginflow/internal/pubsub"
)

// StateEvent is the bus representation of a State. The password and the
// token never leave the process; HasToken reports whether one is held.
type StateEvent struct {
	Username     string  `json:"username"`
	RememberMe   bool    `json:"remember_me"`
	IsOnline     bool    `json:"is_online"`
	FailureCount int     `json:"failure_count"`
	IsLockedOut  bool    `json:"is_locked_out"`
	IsSubmitting bool    `json:"is_submitting"`
	CanSubmit    bool    `json:"can_submit"`
	ErrorMessage *string `json:"error_message,omitempty"`
	HasToken     bool    `json:"has_token"`
	NavigateHome bool    `json:"navigate_home"`
}

// StateChanged is published once for every state transition.
var StateChanged = pubsub.NewEvent[StateEvent](
	"login.state.changed",
	"Login form state after a transition",
)

// NewStateEvent projects s onto its bus representation.
func NewStateEvent(s State) StateEvent {
	ev := StateEvent{
		Username:     s.Username,
		RememberMe:   s.RememberMe,
		IsOnline:     s.IsOnline,
		FailureCount: s.FailureCount,
		IsLockedOut:  s.IsLockedOut,
		IsSubmitting: s.IsSubmitting,
		CanSubmit:    s.CanSubmit(),
		HasToken:     s.Token != nil,
		NavigateHome: s.NavigateHome,
	}
	if msg, ok := s.ErrorText(); ok {
		ev.ErrorMessage = &msg
	}
	return ev
}

// Mirror forwards every state yielded by sub to the bus as a StateChanged
// event, in order. It returns nil when the subscription closes and
// ctx.Err() when ctx is cancelled first.
func Mirror(ctx context.Context, sub *hub.Subscription[State], pub pubsub.Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := pubsub.Publish(ctx, pub, StateChanged, NewStateEvent(s), nil); err != nil {
				return err
			}
		}
	}
}
