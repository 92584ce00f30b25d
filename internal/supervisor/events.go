package supervisor

import (
	"go.uber.org/zap"
)

const subscriberBuffer = 32

// Subscribe returns a stream of task events and a function ending the subscription.
// Events are dropped for subscribers that fall behind.
func (s *Supervisor) Subscribe() (<-chan TaskEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan TaskEvent, subscriberBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// publishLocked sends a snapshot of t; s.mu must be held
func (s *Supervisor) publishLocked(t *task) {
	ev := TaskEvent{Task: t.state}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- ev:
		default:
			s.logger.Debug("Dropping task event for slow subscriber",
				zap.String("channel", string(ev.Task.Channel)),
				zap.String("status", string(ev.Task.Status)))
		}
	}
}
