package runloop

import "sync"

// Manual queues tasks until RunOnce or RunUntilIdle is called. Background
// work passed to Go is queued on the same FIFO so tests stay deterministic.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Post queues task.
func (m *Manual) Post(task func()) {
	if task == nil {
		return
	}
	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()
}

// Go queues fn like Post.
func (m *Manual) Go(fn func()) {
	m.Post(fn)
}

// Pending reports how many tasks are waiting.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunOnce runs the oldest queued task and reports whether there was one.
func (m *Manual) RunOnce() bool {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[0]
	m.tasks[0] = nil
	m.tasks = m.tasks[1:]
	m.mu.Unlock()

	task()
	return true
}

// RunUntilIdle runs tasks, including those posted by running tasks, until the
// queue is empty. It returns the number of tasks executed.
func (m *Manual) RunUntilIdle() int {
	n := 0
	for m.RunOnce() {
		n++
	}
	return n
}
