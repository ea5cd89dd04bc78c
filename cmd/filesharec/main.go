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

// Command filesharec is the companion client: it reads a single
// interactive command of the form "upload <local> <remote>" or
// "download <remote> <local>", then dials the server once and carries
// it out.
package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// VERSION is populated via build flags when packaging official
// binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "filesharec"
	app.Usage = "file-transfer client"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "remote, r",
			Value: "127.0.0.1:8080",
			Usage: "file-transfer server address",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.String("log") != "" {
		f, err := os.OpenFile(c.String("log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}

	fmt.Println("connected target:", c.String("remote"))
	fmt.Println(`enter "upload <local> <remote>" or "download <remote> <local>"`)

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return errors.Wrap(scanner.Err(), "read command")
	}

	verb, args, err := parseCommandLine(scanner.Text())
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", c.String("remote"))
	if err != nil {
		return errors.Wrap(err, "net.Dial")
	}
	defer conn.Close()

	switch verb {
	case "upload":
		return doUpload(conn, args[0], args[1])
	case "download":
		return doDownload(conn, args[0], args[1])
	default:
		return errors.Errorf("unrecognized command %q", verb)
	}
}

// parseCommandLine splits a line of the form "<verb> <a> <b>" into a
// lowercased verb and its two arguments.
func parseCommandLine(line string) (verb string, args [2]string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", args, errors.Errorf("expected \"<verb> <a> <b>\", got %q", line)
	}
	verb = strings.ToLower(fields[0])
	if verb != "upload" && verb != "download" {
		return "", args, errors.Errorf("unrecognized command %q", fields[0])
	}
	args[0], args[1] = fields[1], fields[2]
	return verb, args, nil
}
