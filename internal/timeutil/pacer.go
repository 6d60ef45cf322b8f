package timeutil

import "time"

// Pacer releases one simulation step per period of wall-clock time.
// When the caller falls more than one period behind, the schedule restarts
// from now instead of replaying the backlog.
type Pacer struct {
	clock  Clock
	period time.Duration
	next   time.Time
}

// NewPacer returns a pacer whose first Wait returns immediately.
func NewPacer(clock Clock, period time.Duration) *Pacer {
	return &Pacer{clock: clock, period: period}
}

// PeriodFor converts a simulated step dt (seconds) at the given time
// dilation into a wall-clock period. Non-positive speeds count as 1.
func PeriodFor(dt, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(dt / speed * float64(time.Second))
}

// Wait blocks until the next step is due.
func (p *Pacer) Wait() {
	now := p.clock.Now()
	if p.next.IsZero() {
		p.next = now.Add(p.period)
		return
	}
	if wait := p.next.Sub(now); wait > 0 {
		p.clock.Sleep(wait)
		p.next = p.next.Add(p.period)
		return
	}
	if now.Sub(p.next) > p.period {
		p.next = now.Add(p.period)
		return
	}
	p.next = p.next.Add(p.period)
}
