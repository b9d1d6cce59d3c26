package submit

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

var _ core.Submitter = (*LocalFile)(nil)

// LocalFile appends every payload as one JSON line to a rotated file before
// handing it to the next submitter. A failed local write never fails the
// submission.
type LocalFile struct {
	next   core.Submitter
	logger log.Logger

	mu sync.Mutex
	w  io.WriteCloser
}

// NewLocalFile wraps next with a size-rotated JSON-lines file.
func NewLocalFile(next core.Submitter, opts options.LocalFileOptions) *LocalFile {
	return newLocalFile(next, &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	})
}

func newLocalFile(next core.Submitter, w io.WriteCloser) *LocalFile {
	return &LocalFile{
		next:   next,
		w:      w,
		logger: log.WithName("submit").WithValues("transport", "local-file"),
	}
}

func (l *LocalFile) Submit(ctx context.Context, p *core.Payload) error {
	l.write(p)
	return l.next.Submit(ctx, p)
}

func (l *LocalFile) write(p *core.Payload) {
	line, err := json.Marshal(p)
	if err != nil {
		l.logger.Error(err, "Failed to encode payload for local file", "payloadIdx", p.PayloadIdx)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line); err != nil {
		l.logger.Error(err, "Failed to write payload to local file", "payloadIdx", p.PayloadIdx)
	}
}

// Close closes the file and the wrapped submitter when it is closable.
func (l *LocalFile) Close() error {
	l.mu.Lock()
	err := l.w.Close()
	l.mu.Unlock()

	if c, ok := l.next.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
