// Package stats collects purely observational transfer telemetry and,
// on a ticker, snapshots it to a CSV file: the file name is passed
// through filepath.Split + time.Now().Format(logfile) for date-based
// rotation, and the CSV header is written only into an empty file.
package stats

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Counters is the set of process-wide transfer counters the session
// handler updates as sessions progress. The zero value is ready to use.
type Counters struct {
	ActiveSessions int64
	BytesUp        int64
	BytesDown      int64
	Uploads        int64
	Downloads      int64
	LockWaitsRead  int64
	LockWaitsWrite int64
}

// SessionStarted and SessionEnded bracket one connection's lifetime.
func (c *Counters) SessionStarted() { atomic.AddInt64(&c.ActiveSessions, 1) }
func (c *Counters) SessionEnded()   { atomic.AddInt64(&c.ActiveSessions, -1) }

// AddBytesUp/AddBytesDown record payload bytes moved in an upload
// (client→server) or download (server→client) transfer.
func (c *Counters) AddBytesUp(n int)   { atomic.AddInt64(&c.BytesUp, int64(n)) }
func (c *Counters) AddBytesDown(n int) { atomic.AddInt64(&c.BytesDown, int64(n)) }

// UploadCompleted and DownloadCompleted count one finished transfer of
// each verb.
func (c *Counters) UploadCompleted()   { atomic.AddInt64(&c.Uploads, 1) }
func (c *Counters) DownloadCompleted() { atomic.AddInt64(&c.Downloads, 1) }

// LockWaitRead and LockWaitWrite count one registry lock acquisition of
// each kind, independent of whether the caller actually blocked.
func (c *Counters) LockWaitRead()  { atomic.AddInt64(&c.LockWaitsRead, 1) }
func (c *Counters) LockWaitWrite() { atomic.AddInt64(&c.LockWaitsWrite, 1) }

func (c *Counters) header() []string {
	return []string{
		"Unix", "ActiveSessions", "BytesUp", "BytesDown",
		"Uploads", "Downloads", "LockWaitsRead", "LockWaitsWrite",
	}
}

func (c *Counters) row() []string {
	return []string{
		fmt.Sprint(time.Now().Unix()),
		fmt.Sprint(atomic.LoadInt64(&c.ActiveSessions)),
		fmt.Sprint(atomic.LoadInt64(&c.BytesUp)),
		fmt.Sprint(atomic.LoadInt64(&c.BytesDown)),
		fmt.Sprint(atomic.LoadInt64(&c.Uploads)),
		fmt.Sprint(atomic.LoadInt64(&c.Downloads)),
		fmt.Sprint(atomic.LoadInt64(&c.LockWaitsRead)),
		fmt.Sprint(atomic.LoadInt64(&c.LockWaitsWrite)),
	}
}

// Logger periodically appends one CSV row of c's current values to
// path, every interval seconds. It returns immediately (a no-op) if
// path is empty or interval is zero; callers run it in its own
// goroutine.
func Logger(c *Counters, path string, interval int) {
	if path == "" || interval == 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		logDir, logFile := filepath.Split(path)
		f, err := os.OpenFile(logDir+time.Now().Format(logFile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Println(err)
			return
		}
		w := csv.NewWriter(f)
		if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
			if err := w.Write(c.header()); err != nil {
				log.Println(err)
			}
		}
		if err := w.Write(c.row()); err != nil {
			log.Println(err)
		}
		w.Flush()
		f.Close()
	}
}
