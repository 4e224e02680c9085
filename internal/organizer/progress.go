package organizer

import "time"

// Progress is one real-time update from an organize run.
type Progress struct {
	Stage      string // "scanning", "organizing", "complete"
	Current    int
	Total      int
	Percentage float64
	Message    string

	Created       int
	AlreadyLinked int
	Replaced      int
	Skipped       int
	Failed        int

	StartTime      time.Time
	ElapsedSeconds int
}

// progressReporter fills in stage, totals and timing on outgoing events.
// A nil reporter is safe to call and sends nothing. Callers serialize
// calls; the reporter itself takes no locks.
type progressReporter struct {
	ch        chan<- Progress
	startTime time.Time
	total     int
}

func newProgressReporter(ch chan<- Progress) *progressReporter {
	if ch == nil {
		return nil
	}
	return &progressReporter{ch: ch, startTime: time.Now()}
}

func (pr *progressReporter) start(total int, message string) {
	if pr == nil {
		return
	}
	pr.total = total
	pr.send(Progress{Stage: "scanning", Message: message})
}

// setTotal swaps in the real item count once scanning finishes.
func (pr *progressReporter) setTotal(total int) {
	if pr == nil {
		return
	}
	pr.total = total
}

func (pr *progressReporter) update(ev Progress) {
	if pr == nil {
		return
	}
	ev.Stage = "organizing"
	pr.send(ev)
}

func (pr *progressReporter) complete(message string, ev Progress) {
	if pr == nil {
		return
	}
	ev.Stage = "complete"
	ev.Current = pr.total
	ev.Message = message
	pr.send(ev)
}

func (pr *progressReporter) send(ev Progress) {
	ev.Total = pr.total
	if pr.total > 0 {
		ev.Percentage = float64(ev.Current) / float64(pr.total) * 100.0
	}
	if ev.Stage == "complete" {
		ev.Percentage = 100.0
	}
	ev.StartTime = pr.startTime
	ev.ElapsedSeconds = int(time.Since(pr.startTime).Seconds())
	pr.ch <- ev
}
