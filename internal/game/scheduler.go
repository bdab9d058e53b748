package game

import (
	"sync"
	"time"
)

// Scheduler runs one periodic tick task per match. Stop is idempotent and
// synchronous: once it returns no further tick for that match is delivered by
// the scheduler.
type Scheduler interface {
	Start(matchID int64, interval time.Duration, tick func()) bool
	Stop(matchID int64) bool
	Running(matchID int64) bool
	StopAll()
}

// TickerScheduler drives ticks with one time.Ticker per match and hands each
// tick to the manager's event loop through ops, so tick work never runs
// concurrently with other state changes.
type TickerScheduler struct {
	ops chan<- func()

	mu    sync.Mutex
	tasks map[int64]*tickTask
}

type tickTask struct {
	stop chan struct{}
	done chan struct{}
}

func NewTickerScheduler(ops chan<- func()) *TickerScheduler {
	return &TickerScheduler{ops: ops, tasks: make(map[int64]*tickTask)}
}

// Start begins ticking matchID. It returns false if a task already exists.
func (s *TickerScheduler) Start(matchID int64, interval time.Duration, tick func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[matchID]; ok {
		return false
	}
	task := &tickTask{stop: make(chan struct{}), done: make(chan struct{})}
	s.tasks[matchID] = task
	go s.run(interval, task, tick)
	return true
}

func (s *TickerScheduler) run(interval time.Duration, task *tickTask, tick func()) {
	defer close(task.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	stop := task.stop
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case s.ops <- tick:
			case <-stop:
				return
			}
		}
	}
}

// Stop cancels the task for matchID and waits for its goroutine to exit.
// It reports whether a task was running. Once Stop returns the task delivers
// no further ticks.
func (s *TickerScheduler) Stop(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[matchID]
	if !ok {
		return false
	}
	delete(s.tasks, matchID)
	close(task.stop)
	<-task.done
	return true
}

func (s *TickerScheduler) Running(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[matchID]
	return ok
}

func (s *TickerScheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		close(task.stop)
		<-task.done
		delete(s.tasks, id)
	}
}

func (s *TickerScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
