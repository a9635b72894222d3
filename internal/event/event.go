// Package event implements a readiness-multiplexing event loop for watched
// file descriptors and timers. Readiness is checked with
// golang.org/x/sys/unix's poll(2) binding.
package event

import (
	"time"

	"golang.org/x/sys/unix"
)

// Interest is a bitset of the conditions a file descriptor is watched
// for.
type Interest int

const (
	Readable Interest = 1 << iota
	Writable
	Exceptional
)

// Runner is the callback surface the loop needs from the interpreter: run
// a registered procedure by name with no arguments, the way a timer or fd
// callback fires. A non-nil error (Error or Exit) stops the loop.
type Runner interface {
	RunCallback(name string) error
}

type fdEntry struct {
	fd        int
	interests Interest
	callback  string
}

type timerEntry struct {
	id         int
	expireMs   int64
	repeatMs   int64
	callback   string
}

// Loop owns the registered fd watches and timers, in registration order.
type Loop struct {
	runner Runner

	fds    []fdEntry
	timers []timerEntry

	nextTimerID int
	running     bool
	stopped     bool
}

// New creates an event loop driven by runner.
func New(runner Runner) *Loop {
	return &Loop{runner: runner}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// RegisterFD merges interests into any existing entry for fd, or adds a
// new one. Multiple interest registrations for one fd collapse into a
// single entry.
func (l *Loop) RegisterFD(fd int, interests Interest, callback string) {
	for idx := range l.fds {
		if l.fds[idx].fd == fd {
			l.fds[idx].interests |= interests
			l.fds[idx].callback = callback
			return
		}
	}
	l.fds = append(l.fds, fdEntry{fd: fd, interests: interests, callback: callback})
}

// DeleteFD removes all interests (or only the ones masked out, if
// interests != 0) for fd.
func (l *Loop) DeleteFD(fd int, interests Interest) {
	out := l.fds[:0]
	for _, e := range l.fds {
		if e.fd != fd {
			out = append(out, e)
			continue
		}
		if interests != 0 {
			e.interests &^= interests
			if e.interests != 0 {
				out = append(out, e)
			}
			continue
		}
		// interests == 0 means "delete entirely".
	}
	l.fds = out
}

// RegisterTimer schedules callback to run after delayMs, repeating every
// repeatMs thereafter (0 = one-shot). Returns a handle for DeleteTimer.
func (l *Loop) RegisterTimer(delayMs, repeatMs int64, callback string) int {
	l.nextTimerID++
	l.timers = append(l.timers, timerEntry{
		id:       l.nextTimerID,
		expireMs: nowMs() + delayMs,
		repeatMs: repeatMs,
		callback: callback,
	})
	return l.nextTimerID
}

// DeleteTimer removes a timer by the handle RegisterTimer returned.
func (l *Loop) DeleteTimer(id int) {
	out := l.timers[:0]
	for _, t := range l.timers {
		if t.id != id {
			out = append(out, t)
		}
	}
	l.timers = out
}

// Empty reports whether the event collection has nothing left to watch.
func (l *Loop) Empty() bool {
	return len(l.fds) == 0 && len(l.timers) == 0
}

// Stop sets the loop's running flag to false, observed at the top of the
// next iteration (the EVENT STOP operation).
func (l *Loop) Stop() {
	l.stopped = true
}

// Process performs exactly one iteration bounded by timeoutMs (negative
// blocks until work is ready, zero polls without blocking). This is what
// the EVENT PROCESS command drives.
func (l *Loop) Process(timeoutMs int) error {
	waitMs := timeoutMs
	if next := l.nextTimerDeadline(); next >= 0 {
		if waitMs < 0 || int64(waitMs) > next {
			waitMs = int(next)
		}
	}

	if len(l.fds) > 0 {
		pfds := make([]unix.PollFd, len(l.fds))
		for idx, e := range l.fds {
			var events int16
			if e.interests&Readable != 0 {
				events |= unix.POLLIN
			}
			if e.interests&Writable != 0 {
				events |= unix.POLLOUT
			}
			if e.interests&Exceptional != 0 {
				events |= unix.POLLPRI
			}
			pfds[idx] = unix.PollFd{Fd: int32(e.fd), Events: events}
		}
		if _, err := unix.Poll(pfds, waitMs); err != nil && err != unix.EINTR {
			return err
		}
		// fd callbacks run before expired timer callbacks within one
		// iteration.
		for idx, pfd := range pfds {
			if pfd.Revents == 0 {
				continue
			}
			if err := l.runner.RunCallback(l.fds[idx].callback); err != nil {
				return err
			}
		}
	} else if waitMs != 0 {
		if waitMs < 0 {
			waitMs = 0
		}
		time.Sleep(time.Duration(waitMs) * time.Millisecond)
	}

	return l.fireExpiredTimers()
}

func (l *Loop) nextTimerDeadline() int64 {
	best := int64(-1)
	now := nowMs()
	for _, t := range l.timers {
		remaining := t.expireMs - now
		if remaining < 0 {
			remaining = 0
		}
		if best == -1 || remaining < best {
			best = remaining
		}
	}
	return best
}

func (l *Loop) fireExpiredTimers() error {
	now := nowMs()
	for idx := range l.timers {
		t := &l.timers[idx]
		if t.expireMs > now {
			continue
		}
		if err := l.runner.RunCallback(t.callback); err != nil {
			return err
		}
		if t.repeatMs > 0 {
			t.expireMs = now + t.repeatMs
		} else {
			t.expireMs = -1 // mark for removal below
		}
	}
	out := l.timers[:0]
	for _, t := range l.timers {
		if t.expireMs != -1 {
			out = append(out, t)
		}
	}
	l.timers = out
	return nil
}

// Run iterates until Stop is called (observed at the top of each
// iteration) or the event collection becomes empty.
func (l *Loop) Run() error {
	l.running = true
	l.stopped = false
	for l.running && !l.stopped && !l.Empty() {
		if err := l.Process(50); err != nil {
			return err
		}
	}
	l.running = false
	return nil
}
