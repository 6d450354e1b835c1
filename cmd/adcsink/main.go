package main

import (
	"context"
	"flag"
	"fmt"
	golog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/gops/agent"
	"github.com/nicolagi/adcsink/ingest"
	"github.com/nicolagi/adcsink/metrics"
	"github.com/nicolagi/adcsink/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	defaultConfigFile := os.ExpandEnv("$HOME/lib/adcsink/adcsink.config")
	configFile := flag.String("config", defaultConfigFile, "location of configuration file")
	addr := flag.String("addr", "", "`host:port` to listen on, overrides bind_address and port")
	output := flag.String("output", "", "`file` to append payloads to, overrides output_file")
	strict := flag.Bool("strict", false, "reply 500 when a payload cannot be appended, overrides strict")
	flag.Parse()

	c, err := loadConfig(*configFile)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Could not load configuration")
	}
	c.applyDefaultsForMissingProperties()
	if *output != "" {
		c.OutputFile = *output
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "strict" {
			c.Strict = *strict
		}
	})
	listenAddress := c.listenAddress()
	if *addr != "" {
		listenAddress = *addr
	}
	if err := c.validate(); err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Invalid configuration")
	}

	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cleanup := redirectLogging(c)
	defer cleanup()

	if err := agent.Listen(agent.Options{
		ShutdownCleanup: true,
	}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	file := storage.NewFile(os.ExpandEnv(c.OutputFile), storage.WithSync(c.Sync))
	log.Infof("Will append payloads to %s", file.Path())
	var appender storage.Appender = file
	if c.CaptureDir != "" {
		dir := os.ExpandEnv(c.CaptureDir)
		log.Infof("Will also write each payload to its own file in %s", dir)
		appender = storage.Multi{appender, storage.NewCaptureDir(dir)}
	}
	secondary, closeSecondary := openMirror(c)
	defer closeSecondary()
	var mirrored *storage.Mirrored
	if secondary != nil {
		mirrored = storage.NewMirrored(appender, secondary, rate.Limit(c.Mirror.Rate))
		appender = mirrored
	}

	if c.MetricsAddress != "" {
		go serveMetrics(c.MetricsAddress)
	}

	srv := ingest.New(
		ingest.WithAddress(listenAddress),
		ingest.WithPath(c.Path),
		ingest.WithAppender(appender),
		ingest.WithStrict(c.Strict),
		ingest.WithMaxBodyBytes(c.MaxBodyBytes),
	)
	bound, err := srv.Listen()
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"addr": listenAddress,
		}).Fatal("Could not listen")
	}
	log.WithFields(log.Fields{
		"addr":   fmt.Sprintf("http://%s", bound),
		"path":   c.Path,
		"strict": c.Strict,
	}).Info("Server started")

	// Before we call srv.Serve(), which never returns unless srv.Shutdown() is
	// called, we need to install a signal handler to call srv.Shutdown().
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		log.WithField("signal", sig).Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Will make srv.Serve() return, and allow deferred clean-up functions to
		// execute.
		if err := srv.Shutdown(ctx); err != nil {
			log.WithField("err", err).Warn("Could not shut down the server cleanly")
		}
	}()

	if err := srv.Serve(); err != nil {
		log.WithField("err", err).Error("Could not serve")
	}

	if mirrored != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mirrored.Close(ctx); err != nil {
			log.WithField("err", err).Warn("Abandoned payloads not yet mirrored")
		}
		cancel()
	}
}

// openMirror returns the secondary appender described by the configuration,
// or nil if none is configured, and a function releasing its resources.
func openMirror(c *config) (storage.Appender, func()) {
	noop := func() {}
	switch c.Mirror.Type {
	case "bolt":
		file := os.ExpandEnv(c.Mirror.Path)
		db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			log.Fatalf("Could not open database %q: %v", file, err)
		}
		store, err := storage.NewBoltStore(db)
		if err != nil {
			log.Fatalf("Could not instantiate boltdb store at %q: %v", file, err)
		}
		log.Infof("Will mirror payloads to boltdb database %s", file)
		return store, func() {
			if err := db.Close(); err != nil {
				log.Warnf("Could not close boltdb database: %v", err)
			}
		}
	case "remote":
		log.Infof("Will mirror payloads to %s", c.Mirror.Address)
		return storage.NewRemoteStore(c.Mirror.Address), noop
	case "s3":
		log.Infof("Will mirror payloads to s3://%s/%s", c.Mirror.Bucket, c.Mirror.Prefix)
		return storage.NewS3(c.Mirror.Profile, c.Mirror.Region, c.Mirror.Bucket, c.Mirror.Prefix), noop
	default:
		return nil, noop
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.WithField("addr", addr).Info("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"addr": addr,
		}).Warn("Could not serve metrics")
	}
}

func redirectLogging(c *config) (cleanup func()) {
	golog.SetOutput(log.StandardLogger().Writer())
	if c.LogPath == "" {
		return func() {}
	}
	pathname := os.ExpandEnv(c.LogPath)
	logger := log.WithField("pathname", pathname)
	f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		logger.WithField("err", err).Fatal("Could not open log file")
	}
	logger.Info("Lines after this one will be logged to a file")
	log.SetOutput(f)
	return func() {
		if err := f.Close(); err != nil {
			// Can't use the logger here!
			_, _ = fmt.Fprintf(os.Stderr, "Could not close log file cleanly %q: %v", pathname, err)
		}
	}
}
