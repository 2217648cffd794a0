package views

import (
	"sync"
	"time"
)

type Notice struct {
	Text    string
	Success bool
}

func (n Notice) Empty() bool {
	return n.Text == ""
}

// Flash is a screen's one visible notice. A notice shown with autoClear disappears
// after the timeout unless something newer replaced it first.
type Flash struct {
	timeout time.Duration

	mu     sync.Mutex
	notice Notice
	gen    uint64
}

func NewFlash(timeout time.Duration) *Flash {
	return &Flash{timeout: timeout}
}

func (f *Flash) Show(n Notice, autoClear bool) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.notice = n
	f.mu.Unlock()

	if !autoClear {
		return
	}

	time.AfterFunc(f.timeout, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen == gen {
			f.notice = Notice{}
		}
	})
}

func (f *Flash) Success(text string) {
	f.Show(Notice{Text: text, Success: true}, true)
}

func (f *Flash) Failure(text string) {
	f.Show(Notice{Text: text}, false)
}

func (f *Flash) Clear() {
	f.mu.Lock()
	f.gen++
	f.notice = Notice{}
	f.mu.Unlock()
}

func (f *Flash) Current() Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}
