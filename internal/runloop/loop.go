// Package runloop provides the task queues the paging engine runs on.
//
// A Loop executes posted tasks one at a time on a dedicated goroutine, so
// code running inside a task never races another task. Manual is the test
// double: tasks only run when the test asks for them.
package runloop

import "sync"

// Loop runs posted tasks sequentially, in the order they were posted.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop starts a loop goroutine and returns its handle.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post appends task to the queue. Tasks posted after Close are dropped.
func (l *Loop) Post(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	l.signal()
}

// Go runs fn on its own goroutine. Used for blocking IO that must not stall the loop.
func (l *Loop) Go(fn func()) {
	if fn == nil {
		return
	}
	go fn()
}

// Close stops accepting tasks, drains the ones already queued and waits for
// the loop goroutine to exit. It must not be called from inside a task.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.signal()
	<-l.done
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.tasks) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		task()
	}
}
