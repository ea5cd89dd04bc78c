package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/wire"
)

func TestDoUploadSendsHeaderAndFramedBody(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.bin")
	payload := bytes.Repeat([]byte{9}, 200)
	if err := os.WriteFile(local, payload, 0o644); err != nil {
		t.Fatalf("seed local file: %v", err)
	}

	clientSide, serverSide := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- doUpload(clientSide, local, "remote.bin") }()

	req := readTestHeader(t, serverSide)
	if req.command != "upload" || req.filename != "remote.bin" {
		t.Fatalf("unexpected header: %+v", req)
	}

	var got bytes.Buffer
	var buf [wire.ChunkSize]byte
	for {
		n, err := wire.ReceiveChunk(serverSide, buf[:])
		if err != nil {
			t.Fatalf("ReceiveChunk: %v", err)
		}
		if n == 0 {
			break
		}
		got.Write(buf[:n])
	}

	if err := <-done; err != nil {
		t.Fatalf("doUpload returned error: %v", err)
	}
	if !bytes.Equal(got.Bytes(), payload) {
		t.Fatalf("uploaded payload mismatch: got %d bytes, want %d", got.Len(), len(payload))
	}
}

func TestDoDownloadWritesLocalFile(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "out.bin")
	payload := bytes.Repeat([]byte{3}, 200)

	clientSide, serverSide := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- doDownload(clientSide, "remote.bin", local) }()

	req := readTestHeader(t, serverSide)
	if req.command != "download" || req.filename != "remote.bin" {
		t.Fatalf("unexpected header: %+v", req)
	}

	off := 0
	for off < len(payload) {
		n := wire.ChunkSize
		if len(payload)-off < n {
			n = len(payload) - off
		}
		if err := wire.SendChunk(serverSide, payload[off:off+n], n); err != nil {
			t.Fatalf("SendChunk: %v", err)
		}
		off += n
	}
	if err := wire.SendChunk(serverSide, nil, 0); err != nil {
		t.Fatalf("SendChunk terminator: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("doDownload returned error: %v", err)
	}

	got, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("downloaded payload mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

type testHeader struct {
	command, filename string
}

func readTestHeader(t *testing.T, r net.Conn) testHeader {
	t.Helper()
	cmd := readTestLengthPrefixedString(t, r)
	name := readTestLengthPrefixedString(t, r)
	return testHeader{command: cmd, filename: name}
}

func readTestLengthPrefixedString(t *testing.T, r net.Conn) string {
	t.Helper()
	var lenBuf [4]byte
	if _, err := readFullTest(r, lenBuf[:]); err != nil {
		t.Fatalf("read length: %v", err)
	}
	n := int(lenBuf[3]) | int(lenBuf[2])<<8 | int(lenBuf[1])<<16 | int(lenBuf[0])<<24
	buf := make([]byte, n)
	if _, err := readFullTest(r, buf); err != nil {
		t.Fatalf("read field: %v", err)
	}
	return string(buf[:n-1]) // strip trailing NUL
}

func readFullTest(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
