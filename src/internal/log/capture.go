package log

import (
	"encoding/json"
	"sync"
)

// Collector accumulates records emitted while it is active.
type Collector struct {
	mu      sync.Mutex
	records []Record
	remove  func()
}

// Capture starts collecting records. Call Stop when done.
func Capture() *Collector {
	c := &Collector{}
	c.remove = AddHook(func(r Record) {
		c.mu.Lock()
		c.records = append(c.records, r)
		c.mu.Unlock()
	})
	return c
}

// Stop detaches the collector. Records stay available.
func (c *Collector) Stop() {
	if c.remove != nil {
		c.remove()
		c.remove = nil
	}
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// JSON encodes the collected records as a JSON array. An empty collector
// encodes as "[]".
func (c *Collector) JSON() string {
	records := c.Records()
	if records == nil {
		records = []Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "[]"
	}
	return string(b)
}
