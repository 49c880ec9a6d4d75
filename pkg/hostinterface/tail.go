package hostinterface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions configures ServeFile.
type TailOptions struct {
	StartAtEnd   bool
	PollInterval time.Duration
}

// ServeFile follows a command file written by the bridge, like `tail -f`. A file
// that shrinks is treated as truncated and read again from the start.
func (b *Bridge) ServeFile(ctx context.Context, path string, opts TailOptions) error {
	if path == "" {
		return errors.New("tail: empty path")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening command file: %w", err)
	}
	defer f.Close()

	whence := io.SeekStart
	if opts.StartAtEnd {
		whence = io.SeekEnd
	}
	offset, err := f.Seek(0, whence)
	if err != nil {
		return err
	}

	var pending []byte
	readBuf := make([]byte, 32*1024)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		fi, err := f.Stat()
		if err != nil {
			return err
		}
		if fi.Size() < offset {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			offset = 0
			pending = pending[:0]
		}

		n, rerr := f.Read(readBuf)
		if n > 0 {
			offset += int64(n)
			pending = append(pending, readBuf[:n]...)
			for {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := bytes.TrimRight(pending[:idx], "\r")
				if err := b.HandleLine(string(line)); err != nil {
					b.logger.Debug("Command rejected", "error", err)
				}
				pending = pending[idx+1:]
			}
			if len(pending) > MaxLineSize {
				b.logger.Warn("Dropping oversized command line", "bytes", len(pending))
				pending = pending[:0]
			}
			// keep reading while there is data
			if rerr == nil {
				continue
			}
		}
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return rerr
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
