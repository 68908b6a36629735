//go:build linux

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollLoop implements platformLoop over golang.org/x/sys/unix's epoll
// bindings: EpollCreate1(EPOLL_CLOEXEC), then EpollCtl to add/remove
// watched fds and EpollWait to block for readiness.
type epollLoop struct {
	fd       int
	watchers map[int]*Watcher
}

func newPlatformLoop() (platformLoop, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollLoop{fd: fd, watchers: make(map[int]*Watcher)}, nil
}

func wantedEvents(w *Watcher) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var events uint32
	if w.readArmed {
		events |= unix.EPOLLIN
	}
	if w.writeArmed {
		events |= unix.EPOLLOUT
	}
	return events
}

func (e *epollLoop) add(w *Watcher) {
	e.watchers[w.fd] = w
	ev := unix.EpollEvent{Events: wantedEvents(w), Fd: int32(w.fd)}
	_ = unix.EpollCtl(e.fd, unix.EPOLL_CTL_ADD, w.fd, &ev)
}

func (e *epollLoop) modify(w *Watcher) {
	ev := unix.EpollEvent{Events: wantedEvents(w), Fd: int32(w.fd)}
	_ = unix.EpollCtl(e.fd, unix.EPOLL_CTL_MOD, w.fd, &ev)
}

func (e *epollLoop) remove(w *Watcher) {
	delete(e.watchers, w.fd)
	var ev unix.EpollEvent
	_ = unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, w.fd, &ev)
}

func (e *epollLoop) poll(timeout time.Duration) ([]readyEvent, error) {
	ms := int(timeout / time.Millisecond)
	var raw [64]unix.EpollEvent

	n, err := unix.EpollWait(e.fd, raw[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyEvent, 0, n)
	for i := 0; i < n; i++ {
		w, ok := e.watchers[int(raw[i].Fd)]
		if !ok {
			continue
		}
		var kind EventKind
		if raw[i].Events&unix.EPOLLIN != 0 {
			kind |= EventReadable
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			kind |= EventWritable
		}
		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			kind |= EventError
		}
		out = append(out, readyEvent{w: w, kind: kind})
	}
	return out, nil
}

func (e *epollLoop) close() error {
	return unix.Close(e.fd)
}
