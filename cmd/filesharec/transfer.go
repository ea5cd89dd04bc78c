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

package main

import (
	"net"
	"os"

	"github.com/pkg/errors"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/wire"
)

// doDownload requests remote from conn and streams the response body
// into local, stopping at the terminator frame.
func doDownload(conn net.Conn, remote, local string) error {
	if err := sendRequestHeader(conn, "download", remote); err != nil {
		return err
	}

	f, err := os.Create(local)
	if err != nil {
		return errors.Wrap(err, "create local file")
	}
	defer f.Close()

	var buf [wire.ChunkSize]byte
	for {
		n, err := wire.ReceiveChunk(conn, buf[:])
		if err != nil {
			return errors.Wrap(err, "receive chunk")
		}
		if n == 0 {
			return nil
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return errors.Wrap(err, "write local file")
		}
	}
}

// doUpload requests that local be deposited under remote and streams
// its bytes, ending with the zero-length terminator frame.
func doUpload(conn net.Conn, local, remote string) error {
	if err := sendRequestHeader(conn, "upload", remote); err != nil {
		return err
	}

	f, err := os.Open(local)
	if err != nil {
		return errors.Wrap(err, "open local file")
	}
	defer f.Close()

	var buf [wire.ChunkSize]byte
	for {
		n, err := f.Read(buf[:])
		if n > 0 {
			if sendErr := wire.SendChunk(conn, buf[:], n); sendErr != nil {
				return errors.Wrap(sendErr, "send chunk")
			}
		}
		if err != nil {
			break
		}
	}
	return wire.SendChunk(conn, nil, 0)
}
