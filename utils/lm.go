package utils

import "sync"

// LoopMode is an universal working mode for structs whose logic runs in long-term goroutines.
// The owner calls StartWorking() in its setup function and Stop() in its cleanup function.
// Each long-term running goroutine should work like:
/*
	lm.Add()
	defer lm.Done()
	for {
		select {
		case <-lm.D:
			return
		// case :...other goroutine logic
		}
	}
*/
type LoopMode struct {
	mu        sync.Mutex
	working   bool
	waitGroup sync.WaitGroup
	D         chan struct{}
}

func NewLoop() *LoopMode {
	return &LoopMode{
		D: make(chan struct{}),
	}
}

func (l *LoopMode) StartWorking() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.working = true
}

// Stop signals every goroutine through D and waits for them.
// If it's not working, return false; otherwise return true.
func (l *LoopMode) Stop() bool {
	l.mu.Lock()
	if !l.working {
		l.mu.Unlock()
		return false
	}
	l.working = false
	close(l.D)
	l.mu.Unlock()

	l.waitGroup.Wait()
	return true
}

func (l *LoopMode) Add() {
	l.waitGroup.Add(1)
}

func (l *LoopMode) Done() {
	l.waitGroup.Done()
}

func (l *LoopMode) IsWorking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.working
}
