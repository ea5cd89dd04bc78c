// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command fileshared is the concurrent file-transfer server: it
// listens on a TCP port, and for every accepted connection runs the
// session handler in internal/session against one shared registry and
// one shared telemetry counter set.
package main

import (
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/registry"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/session"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/stats"
)

// defaultListen is the address the server binds when no override is
// given; every flag below is an optional override.
const defaultListen = ":8080"

// VERSION is populated via build flags when packaging official
// binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "fileshared"
	app.Usage = "concurrent file-transfer server"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Value: defaultListen,
			Usage: "TCP listen address",
		},
		cli.IntFlag{
			Name:  "queuecap",
			Value: session.QueueCapacity,
			Usage: "bounded chunk-queue capacity per active transfer",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "collect transfer telemetry to a CSV file, aware of timeformat in golang, like: ./stats-20060102.log",
		},
		cli.IntFlag{
			Name:  "statsperiod",
			Value: 60,
			Usage: "telemetry collection period, in seconds",
		},
		cli.BoolFlag{
			Name:  "pprof",
			Usage: "start profiling server on :6060",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	config := Config{
		Listen:      c.String("listen"),
		QueueCap:    c.Int("queuecap"),
		Log:         c.String("log"),
		StatsLog:    c.String("statslog"),
		StatsPeriod: c.Int("statsperiod"),
		Pprof:       c.Bool("pprof"),
	}

	if c.String("c") != "" {
		if err := parseJSONConfig(&config, c.String("c")); err != nil {
			return errors.Wrap(err, "parseJSONConfig")
		}
	}

	if config.Log != "" {
		f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if config.QueueCap < 1 {
		color.Red("queuecap %d is below the minimum of 1, falling back to %d", config.QueueCap, session.QueueCapacity)
		config.QueueCap = session.QueueCapacity
	}

	log.Println("version:", VERSION)
	log.Println("listening on:", config.Listen)
	log.Println("queue capacity:", config.QueueCap)
	log.Println("statslog:", config.StatsLog)
	log.Println("statsperiod:", config.StatsPeriod)
	log.Println("pprof:", config.Pprof)

	if config.Pprof {
		go http.ListenAndServe(":6060", nil)
	}

	counters := &stats.Counters{}
	go stats.Logger(counters, config.StatsLog, config.StatsPeriod)

	lis, err := net.Listen("tcp", config.Listen)
	if err != nil {
		return errors.Wrap(err, "net.Listen")
	}
	defer lis.Close()

	reg := registry.New()
	handler := &session.Handler{Registry: reg, QueueCapacity: config.QueueCap, Counters: counters}

	watchShutdownSignal(lis)

	var wg sync.WaitGroup
	for {
		conn, err := lis.Accept()
		if err != nil {
			wg.Wait()
			if errors.Is(err, net.ErrClosed) {
				log.Println("listener closed, clean shutdown")
				return nil
			}
			log.Println("accept:", err)
			return errors.Wrap(err, "Accept")
		}
		log.Println("accepted:", conn.RemoteAddr())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handler.Handle(conn); err != nil {
				log.Printf("session %s: %+v", conn.RemoteAddr(), err)
			}
		}()
	}
}
