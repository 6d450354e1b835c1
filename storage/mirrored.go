package storage

import (
	"context"
	"sync"
	"time"

	"github.com/nicolagi/adcsink/metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Mirrored implements Appender wrapping a pair of appenders, a primary one and
// a secondary one. Appends go to the primary synchronously, and only its
// outcome is reported to the caller. Successful appends are then copied to the
// secondary in the background, retrying until they succeed or the Mirrored is
// closed. Attempts against the secondary are paced by a rate limiter, so that
// a slow or failing secondary (S3, a remote relay) is not hammered.
type Mirrored struct {
	primary   Appender
	secondary Appender
	limiter   *rate.Limiter

	mu     sync.RWMutex
	closed bool
	wbc    chan []byte
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// Capacity of the queue of payloads waiting to be copied to the secondary.
// Payloads that don't fit are not mirrored.
const mirrorQueueSize = 1024

// Should randomize.
var mirrorRetryDelay = time.Second

// NewMirrored returns a Mirrored whose background goroutine makes at most
// limit attempts per second against the secondary. A zero limit means no
// pacing.
func NewMirrored(primary, secondary Appender, limit rate.Limit) *Mirrored {
	if limit <= 0 {
		limit = rate.Inf
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Mirrored{
		primary:   primary,
		secondary: secondary,
		limiter:   rate.NewLimiter(limit, 1),
		wbc:       make(chan []byte, mirrorQueueSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	// Exits when Close is called.
	go s.writeback()
	return s
}

func (s *Mirrored) Append(p []byte) error {
	if err := s.primary.Append(p); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		log.WithField("bytes", len(p)).Warn("Not mirroring, already closed")
		return nil
	}
	select {
	case s.wbc <- dup(p):
		metrics.MirrorPending.Inc()
	default:
		metrics.MirrorDropped.Inc()
		log.WithField("bytes", len(p)).Warn("Not mirroring, queue is full")
	}
	return nil
}

// Close stops accepting payloads for the secondary and waits for the queued
// ones to be copied. If ctx expires first, the remaining payloads are
// abandoned and ctx's error returned.
func (s *Mirrored) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wbc)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}

func (s *Mirrored) writeback() {
	defer close(s.done)
	for p := range s.wbc {
		s.writeback1(p)
		metrics.MirrorPending.Dec()
	}
}

func (s *Mirrored) writeback1(p []byte) {
	logger := log.WithField("bytes", len(p))
	for {
		if err := s.limiter.Wait(s.ctx); err != nil {
			metrics.MirrorDropped.Inc()
			logger.WithField("err", err).Warn("Gave up propagating to secondary")
			return
		}
		err := s.secondary.Append(p)
		if err == nil {
			logger.Debug("Propagated to secondary")
			return
		}
		metrics.MirrorErrors.Inc()
		logger.WithField("err", err).Warn("Could not propagate to secondary")
		select {
		case <-time.After(mirrorRetryDelay):
		case <-s.ctx.Done():
		}
	}
}
