package upload

import (
	"sync"
	"time"
)

// DefaultMessages is the narration cycle shown while the server works.
var DefaultMessages = []string{
	"Processing now... please wait",
	"Still processing... please be patient",
	"Still processing...",
}

// Narrator cycles through status messages on a timer. The cadence is
// cosmetic and unrelated to real progress.
type Narrator struct {
	show      func(string)
	messages  []string
	interval  time.Duration
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu       sync.Mutex
	next     int
	shown    int
	advances int
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NarratorOption configures a Narrator.
type NarratorOption func(*Narrator)

// WithInterval sets the time between messages.
func WithInterval(d time.Duration) NarratorOption {
	return func(n *Narrator) {
		if d > 0 {
			n.interval = d
		}
	}
}

// WithMessages replaces the message cycle.
func WithMessages(msgs ...string) NarratorOption {
	return func(n *Narrator) {
		if len(msgs) > 0 {
			n.messages = msgs
		}
	}
}

// withTicker swaps the time source.
func withTicker(f func(time.Duration) (<-chan time.Time, func())) NarratorOption {
	return func(n *Narrator) {
		n.newTicker = f
	}
}

// NewNarrator creates a stopped narrator that reports through show.
func NewNarrator(show func(string), opts ...NarratorOption) *Narrator {
	n := &Narrator{
		show:     show,
		messages: DefaultMessages,
		interval: DefaultTimings().NarratorInterval,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start shows the first message immediately and advances on every tick.
// Starting a running narrator does nothing.
func (n *Narrator) Start() {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return
	}
	n.running = true
	n.next, n.shown, n.advances = 0, 0, 0
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	stopCh, doneCh := n.stopCh, n.doneCh
	n.showNextLocked()
	n.mu.Unlock()

	ticks, stopTicker := n.newTicker(n.interval)
	go n.run(ticks, stopTicker, stopCh, doneCh)
}

// Stop halts the cycle and waits for the timer goroutine. Once Stop
// returns no further message is shown. It is safe to call repeatedly.
func (n *Narrator) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	stopCh, doneCh := n.stopCh, n.doneCh
	n.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Running reports whether the narrator is cycling.
func (n *Narrator) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// Index returns the index of the message currently displayed.
func (n *Narrator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shown
}

// Advances returns how many ticks have moved the cycle since Start.
func (n *Narrator) Advances() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advances
}

func (n *Narrator) run(ticks <-chan time.Time, stopTicker func(), stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer stopTicker()

	for {
		select {
		case <-stopCh:
			return
		case <-ticks:
			n.mu.Lock()
			if n.running {
				n.advances++
				n.showNextLocked()
			}
			n.mu.Unlock()
		}
	}
}

// showNextLocked displays the next message. Caller must hold n.mu.
func (n *Narrator) showNextLocked() {
	n.shown = n.next
	if n.show != nil {
		n.show(n.messages[n.shown])
	}
	n.next = (n.next + 1) % len(n.messages)
}
