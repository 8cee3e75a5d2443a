package metrics

import "time"

var _ Collector = (*NoOpCollector)(nil)

// NoOpCollector drops every event.
type NoOpCollector struct{}

func (n *NoOpCollector) IncAcquire(mode string)                   {}
func (n *NoOpCollector) IncContended(mode string)                 {}
func (n *NoOpCollector) IncWouldBlock(mode string)                {}
func (n *NoOpCollector) IncTimeout(mode string)                   {}
func (n *NoOpCollector) IncUnlockError()                          {}
func (n *NoOpCollector) ObserveWait(mode string, d time.Duration) {}
func (n *NoOpCollector) SetPending(mode string, count int)        {}
