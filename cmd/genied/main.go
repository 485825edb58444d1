package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/speters/geniego/pkg/genie"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var cfgFile = flag.String("f", "", "read configuration from TOML `file`")
var connTo = flag.String("c", "", "connection string, use socket://[host]:[port] for TCP or [serialDevice] for direct serial connection")
var baud = flag.Int("b", 0, "serial line speed")
var httpServe = flag.String("s", "", "start http server at [bindtohost][:]port")
var interactive = flag.Bool("i", false, "start an interactive shell")
var verbose = flag.Bool("v", false, "verbose logging")
var logFile = flag.String("logfile", "", "also log to rotated `file`")

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var dev *genie.Device

// To be set via go build -ldflags "-X main.buildVersion=$(git describe --dirty) -X main.buildDate=$(date -u +%FT%TZ)"
var buildVersion = "unspecified"
var buildDate = "unknown"

// reconnectDelay is the pause before reopening a link that went away
const reconnectDelay = 12 * time.Second

func loadConfig() genie.Config {
	cfg := genie.DefaultConfig()
	if *cfgFile != "" {
		var err error
		if cfg, err = genie.LoadConfig(*cfgFile); err != nil {
			log.Fatal(err)
		}
	}

	// command line flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c":
			cfg.Link = *connTo
		case "b":
			cfg.Baud = *baud
		case "s":
			cfg.HTTP = *httpServe
		}
	})
	return cfg
}

func setupLogging(cfg genie.Config) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	if *verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if *logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}))
	}
}

func stopProfiling() {
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
		f.Close()
	}
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
}

// keepConnected reopens the link whenever the listener stops on its own
func keepConnected(ctx context.Context) {
	for {
		select {
		case <-dev.Done():
		case <-ctx.Done():
			return
		}
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return
		}
		if err := dev.Reconnect(); err != nil {
			log.Error(err)
		} else {
			log.Infof("Reconnected")
		}
	}
}

func main() {
	flag.Parse()

	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.Link == "" {
		log.Fatal("Need connection string in -c option or config file")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer stop()

	dev = genie.NewDevice(cfg.Options)
	dev.Widgets = cfg.Widgets
	if err := dev.Open(cfg.Link, cfg.Baud); err != nil {
		log.Fatal(err)
	}
	log.Infof("%d widgets configured", len(dev.Widgets))

	go keepConnected(ctx)

	var h *http.Server
	if cfg.HTTP != "" {
		addr := cfg.HTTP
		// accept :[portnum] as well as [portnum]
		if i, err := strconv.Atoi(addr); err == nil {
			addr = fmt.Sprintf(":%d", i)
		}

		h = &http.Server{Addr: addr, Handler: newRouter(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := h.ListenAndServe(); err != http.ErrServerClosed {
				log.Error(err)
			}
		}()
		log.Infof("Serving http on %s", addr)
	}

	if *interactive {
		if err := runShell(ctx); err != nil {
			log.Error(err)
		}
		stop()
	}
	<-ctx.Done()

	log.Infof("Shutting down")
	if h != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h.Shutdown(sctx)
		cancel()
	}
	dev.Close()
	stopProfiling()
}
