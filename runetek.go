// Package runetek reads the sector cache of the RuneTek 5 game client, locally from disk
// or remotely from the update servers.
//
// A cache is split into indexes, each holding numbered files. Every file is stored as a
// container: a possibly compressed payload with an optional version trailer. Some files
// are archives packing many small entries; the reference table of an index describes its
// files and their entries, and the master reference table lists every index.
//
// # Core Features
//
//   - Sector-chain file store over main_file_cache.dat2 and its .idx files
//   - Archive (entry file) decoding and single-chunk encoding
//   - Reference table and master reference table codecs
//   - Container compression: none, bzip2 (decode), gzip, LZMA
//   - Network backend over the legacy TCP protocol and the HTTP content endpoint
//   - Optional mirror of downloaded files on disk or in S3-compatible storage
//
// # Basic Usage
//
// Reading an archive from a local cache:
//
//	c, _ := runetek.OpenFileStore("/path/to/cache")
//	defer c.Close()
//
//	archive, _ := cache.GetEntryFile(c, 2, 10)
//	for _, entry := range archive.Entries() {
//	    fmt.Println(entry.Info().EntryID, len(entry.Data))
//	}
//
// Downloading the same file:
//
//	c, _ := runetek.NewDefaultDownloaderCache(910, 1, sessionKey)
//	defer c.Close()
//
//	archive, _ := cache.GetEntryFile(c, 2, 10)
//
// # Package Structure
//
// This package provides convenient top-level constructors for the two backends. The
// cache package defines the Cache contract and typed getters, store and downloader
// implement the backends, and cachefile holds the file codecs.
package runetek

import (
	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/cache"
	"github.com/arloliu/runetek/downloader"
	"github.com/arloliu/runetek/store"
)

// OpenFileStore opens the local cache in dir, logging to logrus.StandardLogger().
//
// Example:
//
//	c, err := runetek.OpenFileStore("/home/user/jagexcache/runescape/LIVE")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
func OpenFileStore(dir string) (*cache.FileStoreCache, error) {
	return OpenFileStoreWithLogger(dir, logrus.StandardLogger())
}

// OpenFileStoreWithLogger opens the local cache in dir, logging to logger.
func OpenFileStoreWithLogger(dir string, logger logrus.FieldLogger) (*cache.FileStoreCache, error) {
	s, err := store.Open(dir, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	c, err := cache.NewFileStoreCache(s, cache.WithLogger(logger))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return c, nil
}

// NewDownloaderCache creates a network backed cache. At least one transport option must
// be given.
//
// Example:
//
//	tcp, _ := downloader.NewTCPDownloader(downloader.DefaultTCPAddr, downloader.WithBuild(910, 1))
//	c, err := runetek.NewDownloaderCache(
//	    downloader.WithTCPDownloader(tcp),
//	    downloader.WithMirror(m),
//	)
func NewDownloaderCache(opts ...downloader.Option) (*downloader.Cache, error) {
	return downloader.New(opts...)
}

// NewDefaultDownloaderCache creates a network backed cache talking to the public update
// servers: music over HTTP and everything else over TCP, announcing the given build and
// session key.
func NewDefaultDownloaderCache(major, minor int, key string) (*downloader.Cache, error) {
	tcp, err := downloader.NewTCPDownloader(downloader.DefaultTCPAddr,
		downloader.WithBuild(major, minor),
		downloader.WithKey(key),
	)
	if err != nil {
		return nil, err
	}

	http, err := downloader.NewHTTPDownloader()
	if err != nil {
		_ = tcp.Close()
		return nil, err
	}

	return downloader.New(
		downloader.WithTCPDownloader(tcp),
		downloader.WithHTTPDownloader(http),
	)
}
