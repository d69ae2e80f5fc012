// Package queue provides the bounded capture work queue feeding the
// inference dispatcher.
package queue

import (
	"errors"
	"sync"

	"visionserver/internal/model"
)

var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")
)

// Queue is a bounded FIFO of capture requests. Capacity is enforced per
// device so one fast producer cannot starve the others; a full per-device
// slot rejects with ErrQueueFull instead of buffering. Dispatch order across
// devices is arrival order, which also preserves FIFO within a device.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []*model.CaptureRequest
	perDev   map[string]int
	capacity int
	closed   bool
}

// New creates a queue with the given per-device capacity.
func New(perDeviceCapacity int) *Queue {
	if perDeviceCapacity <= 0 {
		perDeviceCapacity = 4
	}
	q := &Queue{
		perDev:   make(map[string]int),
		capacity: perDeviceCapacity,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a request, failing with ErrQueueFull once the device's
// slot is at capacity.
func (q *Queue) Enqueue(req *model.CaptureRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.perDev[req.Device] >= q.capacity {
		return ErrQueueFull
	}

	q.perDev[req.Device]++
	q.items = append(q.items, req)
	q.cond.Signal()
	return nil
}

// Dequeue blocks until a request is available or the queue is closed. The
// second return value is false once the queue is closed and drained.
func (q *Queue) Dequeue() (*model.CaptureRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}

	req := q.items[0]
	q.items = q.items[1:]
	if q.perDev[req.Device]--; q.perDev[req.Device] == 0 {
		delete(q.perDev, req.Device)
	}
	return req, true
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting work and wakes blocked consumers. Queued requests
// are still drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
