package server

import (
	"sync"

	"github.com/zucenko/curveclash/model"
)

// fakeSender records everything a session broadcasts to one player. Safe for
// concurrent use; session loops write while tests read.
type fakeSender struct {
	mu       sync.Mutex
	messages []model.Envelope
	broken   bool
}

func (f *fakeSender) Send(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return false
	}
	env, err := model.DecodeEnvelope(msg)
	if err != nil {
		return false
	}
	f.messages = append(f.messages, env)
	return true
}

func (f *fakeSender) breakConn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = true
}

func (f *fakeSender) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, env := range f.messages {
		if env.T == eventType {
			n++
		}
	}
	return n
}

func (f *fakeSender) last(eventType string) (model.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].T == eventType {
			return f.messages[i], true
		}
	}
	return model.Envelope{}, false
}

// states returns the sequence of lifecycle names broadcast so far.
func (f *fakeSender) states() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, env := range f.messages {
		if env.T != model.MSG_STATE_CHANGED {
			continue
		}
		p, err := model.DecodePayload[model.StateChanged](env)
		if err != nil {
			continue
		}
		out = append(out, p.State)
	}
	return out
}
