// Package healthcheck contains a monitor which takes a set of liveliness
// checks and periodically runs them. If a check fails after its configured
// number of allowed attempts, the monitor invokes the failure callback it
// was given. Checks run in their own goroutines so that they never block
// each other.
package healthcheck

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Config contains configuration settings for a Monitor.
type Config struct {
	// Checks is the set of health checks this monitor runs.
	Checks []*Observation

	// OnFailure is called, with a human-readable reason, when a check
	// exhausts its configured attempts without succeeding.
	OnFailure func(format string, params ...interface{})
}

// Monitor periodically runs a set of configured liveliness checks.
type Monitor struct {
	started int32 // atomic
	stopped int32 // atomic

	cfg *Config

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewMonitor returns a Monitor with the given config.
func NewMonitor(cfg *Config) *Monitor {
	return &Monitor{
		cfg:  cfg,
		quit: make(chan struct{}),
	}
}

// Start launches a goroutine per configured check.
func (m *Monitor) Start() error {
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return errors.New("monitor already started")
	}

	for _, check := range m.cfg.Checks {
		check := check

		if check.Attempts == 0 {
			log.Warnf("check: %v configured with 0 attempts, skipping it",
				check.Name)
			continue
		}

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			check.monitor(m.cfg.OnFailure, m.quit)
		}()
	}

	return nil
}

// Stop signals every check goroutine to exit and waits for them to do so.
func (m *Monitor) Stop() error {
	if !atomic.CompareAndSwapInt32(&m.stopped, 0, 1) {
		return fmt.Errorf("monitor already stopped")
	}

	close(m.quit)
	m.wg.Wait()

	return nil
}

// Observation is a single liveliness check, run on a fixed interval.
type Observation struct {
	// Name describes the health check, e.g. the peer it probes.
	Name string

	// Check runs the health check itself, returning an error on failure.
	Check func() error

	// Interval is how often Check is invoked.
	Interval time.Duration

	// Attempts is the number of calls made for a single round before
	// declaring that round a failure.
	Attempts int

	// Timeout bounds a single call to Check.
	Timeout time.Duration

	// Backoff is how long to wait between retries within a round.
	Backoff time.Duration
}

// NewObservation builds an Observation.
func NewObservation(name string, check func() error, interval,
	timeout, backoff time.Duration, attempts int) *Observation {

	return &Observation{
		Name:     name,
		Check:    check,
		Interval: interval,
		Attempts: attempts,
		Timeout:  timeout,
		Backoff:  backoff,
	}
}

// String implements fmt.Stringer.
func (o *Observation) String() string {
	return o.Name
}

// monitor runs Check on every tick until quit is closed.
func (o *Observation) monitor(onFailure func(string, ...interface{}), quit chan struct{}) {
	log.Debugf("monitoring: %v", o)

	ticker := time.NewTicker(o.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.retryCheck(quit, onFailure)

		case <-quit:
			return
		}
	}
}

// retryCheck calls Check until it succeeds or Attempts is exhausted,
// backing off between failures.
func (o *Observation) retryCheck(quit chan struct{}, onFailure func(string, ...interface{})) {
	var count int

	for count < o.Attempts {
		count++

		errChan := make(chan error, 1)
		go func() {
			errChan <- o.Check()
		}()

		var err error
		select {
		case err = <-errChan:

		case <-time.After(o.Timeout):
			err = errors.New("health check timed out")

		case <-quit:
			return
		}

		if err == nil {
			return
		}

		if count == o.Attempts {
			if onFailure != nil {
				onFailure("health check: %v failed after %v calls: %v",
					o, o.Attempts, err)
			}
			return
		}

		select {
		case <-time.After(o.Backoff):
			log.Debugf("health check: %v, call: %v failed with: %v, "+
				"backing off for: %v", o, count, err, o.Backoff)

		case <-quit:
			return
		}
	}
}
