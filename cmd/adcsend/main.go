package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nicolagi/adcsink/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "`address` of the adcsink server, host:port or full URL")
	chunk := flag.Int("chunk", 32000, "payload size in `bytes`")
	bps := flag.Float64("rate", 32000, "maximum `bytes` per second, zero for no limit")
	debug := flag.Bool("debug", false, "log every chunk sent")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var in io.Reader = os.Stdin
	name := "stdin"
	if flag.NArg() > 0 {
		name = flag.Arg(0)
		f, err := os.Open(name)
		if err != nil {
			log.WithField("err", err).Fatal("Could not open recording")
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}

	n, err := send(context.Background(), storage.NewRemoteStore(*addr), in, *chunk, rate.Limit(*bps))
	logger := log.WithFields(log.Fields{
		"input": name,
		"bytes": n,
	})
	if err != nil {
		logger.WithField("err", err).Fatal("Could not send recording")
	}
	logger.Info("Sent")
}

// send reads r in chunks of the given size and appends each to dst, waiting
// so as not to exceed limit bytes per second. It returns the number of bytes
// appended.
func send(ctx context.Context, dst storage.Appender, r io.Reader, chunk int, limit rate.Limit) (n int64, err error) {
	if chunk <= 0 {
		return 0, fmt.Errorf("chunk size %d: must be positive", chunk)
	}
	if limit <= 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, chunk)
	buf := make([]byte, chunk)
	for {
		m, rerr := io.ReadFull(r, buf)
		if m > 0 {
			if err := limiter.WaitN(ctx, m); err != nil {
				return n, err
			}
			if err := dst.Append(buf[:m]); err != nil {
				return n, fmt.Errorf("chunk at offset %d: %w", n, err)
			}
			log.WithFields(log.Fields{
				"offset": n,
				"bytes":  m,
			}).Debug("Sent chunk")
			n += int64(m)
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			return n, nil
		}
		if rerr != nil {
			return n, rerr
		}
	}
}
