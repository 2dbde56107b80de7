package session

import (
	"sync"
	"time"
)

// Dwell times for the auto-hiding cues.
const (
	DefaultSendDwell  = 2 * time.Second
	DefaultReplyDwell = 3 * time.Second
)

// Flags is a point-in-time snapshot of the notification cues the UI
// renders alongside the message log.
type Flags struct {
	SendConfirmed   bool `json:"send_confirmed"`
	ReplyReceived   bool `json:"reply_received"`
	WaitingForReply bool `json:"waiting_for_reply"`
}

// Notifier drives the timed cues around sends and replies. Each auto-hiding
// flag owns its timer; retriggering a visible flag restarts its dwell timer
// rather than stacking. The waiting flag has no timer: it is cleared only
// by an admin reply or by leaving the chat.
type Notifier struct {
	mu sync.Mutex

	sendConfirmed bool
	replyReceived bool
	waiting       bool

	sendTimer  *time.Timer
	replyTimer *time.Timer

	sendDwell  time.Duration
	replyDwell time.Duration

	onChange func(Flags)
}

// NewNotifier creates a notifier with the given dwell times. onChange, if
// non-nil, fires after every flag transition with a fresh snapshot.
func NewNotifier(sendDwell, replyDwell time.Duration, onChange func(Flags)) *Notifier {
	if sendDwell <= 0 {
		sendDwell = DefaultSendDwell
	}
	if replyDwell <= 0 {
		replyDwell = DefaultReplyDwell
	}
	return &Notifier{
		sendDwell:  sendDwell,
		replyDwell: replyDwell,
		onChange:   onChange,
	}
}

// MessageSent marks a chat send as confirmed and enters the waiting state.
func (n *Notifier) MessageSent() {
	n.mu.Lock()
	n.waiting = true
	n.confirmSendLocked()
	flags := n.flagsLocked()
	n.mu.Unlock()

	n.emit(flags)
}

// FeedbackSubmitted shows the send confirmation without entering the
// waiting state; one-time feedback expects no reply.
func (n *Notifier) FeedbackSubmitted() {
	n.mu.Lock()
	n.confirmSendLocked()
	flags := n.flagsLocked()
	n.mu.Unlock()

	n.emit(flags)
}

// ReplyReceived clears the waiting state and shows the reply cue.
func (n *Notifier) ReplyReceived() {
	n.mu.Lock()
	n.waiting = false
	n.replyReceived = true
	n.restartLocked(&n.replyTimer, n.replyDwell, func() {
		n.replyReceived = false
	})
	flags := n.flagsLocked()
	n.mu.Unlock()

	n.emit(flags)
}

// Reset hides every cue and stops the timers. Called when the chat closes.
func (n *Notifier) Reset() {
	n.mu.Lock()
	if n.sendTimer != nil {
		n.sendTimer.Stop()
		n.sendTimer = nil
	}
	if n.replyTimer != nil {
		n.replyTimer.Stop()
		n.replyTimer = nil
	}
	n.sendConfirmed = false
	n.replyReceived = false
	n.waiting = false
	flags := n.flagsLocked()
	n.mu.Unlock()

	n.emit(flags)
}

// Flags returns the current cue snapshot.
func (n *Notifier) Flags() Flags {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flagsLocked()
}

func (n *Notifier) confirmSendLocked() {
	n.sendConfirmed = true
	n.restartLocked(&n.sendTimer, n.sendDwell, func() {
		n.sendConfirmed = false
	})
}

// restartLocked cancels any pending hide and schedules a new one, so the
// last trigger wins.
func (n *Notifier) restartLocked(timer **time.Timer, dwell time.Duration, hide func()) {
	if *timer != nil {
		(*timer).Stop()
	}
	*timer = time.AfterFunc(dwell, func() {
		n.mu.Lock()
		hide()
		flags := n.flagsLocked()
		n.mu.Unlock()
		n.emit(flags)
	})
}

func (n *Notifier) flagsLocked() Flags {
	return Flags{
		SendConfirmed:   n.sendConfirmed,
		ReplyReceived:   n.replyReceived,
		WaitingForReply: n.waiting,
	}
}

func (n *Notifier) emit(flags Flags) {
	if n.onChange != nil {
		n.onChange(flags)
	}
}
