package ingest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nicolagi/adcsink/metrics"
	log "github.com/sirupsen/logrus"
)

var ack = []byte("OK")

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"request_id": uuid.New().String(),
		"remote":     r.RemoteAddr,
	})
	status, body := func() (int, []byte) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			logger.WithField("method", r.Method).Debug("Method not allowed")
			return http.StatusMethodNotAllowed, []byte(fmt.Sprintf("%q: invalid method, expecting POST\n", r.Method))
		}
		if s.opts.maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes)
		}
		// No decoding based on the Content-Type header, the body is opaque.
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.WithField("limit", tooLarge.Limit).Warn("Payload too large")
				return http.StatusRequestEntityTooLarge, []byte(fmt.Sprintf("payload exceeds %d bytes\n", tooLarge.Limit))
			}
			// Likely the client went away mid-upload. A partial payload is not
			// appended.
			logger.WithFields(log.Fields{
				"err":   err,
				"bytes": len(payload),
			}).Warn("Could not read payload")
			return http.StatusBadRequest, []byte(fmt.Sprintf("could not read payload: %v\n", err))
		}
		logger = logger.WithField("bytes", len(payload))
		logger.Info("Got ADC bytes")
		metrics.ReceivedBytesTotal.Add(float64(len(payload)))

		start := time.Now()
		err = s.opts.appender.Append(payload)
		metrics.AppendDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.AppendErrors.Inc()
			if s.opts.strict {
				logger.WithField("err", err).Error("Could not append payload")
				return http.StatusInternalServerError, []byte(fmt.Sprintf("%v\n", err))
			}
			logger.WithField("err", err).Warn("Could not append payload, acknowledging anyway")
		}
		return http.StatusOK, ack
	}()
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.WithField("err", err).Debug("Failed writing response")
	}
}
