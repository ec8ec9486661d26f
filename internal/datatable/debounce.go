package datatable

import "time"

// DefaultDebounce is the quiescence window for search input
const DefaultDebounce = 500 * time.Millisecond

// Ticket identifies one scheduled debounce
type Ticket uint64

// Debouncer is a fire-once timer over generations. The host owns the clock:
// it waits the window after Schedule and then calls Fire with the ticket.
// Only the most recently scheduled ticket can fire, and only once.
type Debouncer struct {
	gen     uint64
	pending bool
}

// Schedule voids any earlier ticket and returns a new one
func (d *Debouncer) Schedule() Ticket {
	d.gen++
	d.pending = true
	return Ticket(d.gen)
}

// Cancel voids the pending ticket
func (d *Debouncer) Cancel() {
	d.gen++
	d.pending = false
}

// Fire reports whether ticket is live and consumes it
func (d *Debouncer) Fire(ticket Ticket) bool {
	if !d.pending || uint64(ticket) != d.gen {
		return false
	}
	d.pending = false
	return true
}

// Pending reports whether a ticket is waiting to fire
func (d *Debouncer) Pending() bool {
	return d.pending
}
