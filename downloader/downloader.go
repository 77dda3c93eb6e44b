// Package downloader implements a Cache backed by the game's update servers.
//
// Two transports are available. The legacy TCP protocol (TCPDownloader) serves every
// index; the HTTP endpoint (HTTPDownloader) serves a fixed set of indexes, by default
// only the music index. Cache picks the transport per request from the index alone.
//
// Reference tables are fetched lazily and kept for the lifetime of the Cache. Downloads
// are asynchronous, but Cache.FetchRaw waits for them, so callers see a blocking API
// without timeouts. Closing the Cache aborts outstanding transfers.
package downloader

import (
	"github.com/arloliu/runetek/cachefile"
)

// Result is the outcome of one download.
type Result struct {
	File *cachefile.BinaryFile
	Err  error
}

// Downloader transfers raw container bytes for single files.
type Downloader interface {
	// DownloadAsync starts downloading the file info describes. The returned channel
	// receives exactly one Result.
	DownloadAsync(info *cachefile.Info) <-chan Result

	// Close aborts outstanding downloads and releases the transport.
	Close() error
}

func startAsync(fn func() (*cachefile.BinaryFile, error)) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		file, err := fn()
		ch <- Result{File: file, Err: err}
	}()

	return ch
}
