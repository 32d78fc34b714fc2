// Package export dumps archived records as gzip compressed JSON lines.
package export

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	"github.com/goccy/go-json"
	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/pmon/pkg/record"
)

// RecordReader returns the records with dateTime >= since, oldest first.
type RecordReader interface {
	Records(ctx context.Context, since int64) ([]record.Record, error)
}

type Summary struct {
	Records      int
	Uncompressed datasize.ByteSize
	Compressed   datasize.ByteSize
}

// Export writes every record newer than since to out, one JSON object per
// line, gzip compressed.
func Export(ctx context.Context, src RecordReader, out io.Writer, since int64, opts ...Option) (Summary, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	records, err := src.Records(ctx, since)
	if err != nil {
		return Summary{}, errors.Wrap(err, "reading archive")
	}

	var bytesCompressed, bytesWritten atomic.Int64
	gz, err := pgzip.NewWriterLevel(newWriterWithBytesCounter(out, &bytesCompressed), pgzip.BestSpeed)
	if err != nil {
		return Summary{}, errors.Wrap(err, "pgzip writer failed")
	}
	if err := gz.SetConcurrency(int(options.BlockSize.Bytes()), options.Blocks); err != nil {
		return Summary{}, errors.Wrap(err, "pgzip concurrency")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(options.ReportPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.WithFields(map[string]interface{}{
					"written":    datasize.ByteSize(bytesWritten.Load()).HumanReadable(),
					"compressed": datasize.ByteSize(bytesCompressed.Load()).HumanReadable(),
				}).Info("exporting records")
			}
		}
	}()

	bw := bufio.NewWriter(newWriterWithBytesCounter(gz, &bytesWritten))
	enc := json.NewEncoder(bw)
	for i := range records {
		if err := ctx.Err(); err != nil {
			gz.Close()
			return Summary{}, err
		}
		if err := enc.Encode(&records[i]); err != nil {
			gz.Close()
			return Summary{}, errors.Wrapf(err, "encoding record %d", records[i].DateTime)
		}
	}
	if err := bw.Flush(); err != nil {
		gz.Close()
		return Summary{}, err
	}
	if err := gz.Close(); err != nil {
		return Summary{}, errors.Wrap(err, "closing gzip stream")
	}

	summary := Summary{
		Records:      len(records),
		Uncompressed: datasize.ByteSize(bytesWritten.Load()),
		Compressed:   datasize.ByteSize(bytesCompressed.Load()),
	}
	log.WithFields(map[string]interface{}{
		"records":    summary.Records,
		"size":       summary.Uncompressed.HumanReadable(),
		"compressed": summary.Compressed.HumanReadable(),
	}).Info("export finished")
	return summary, nil
}

// ExportFile is Export into a newly created file at path.
func ExportFile(ctx context.Context, src RecordReader, path string, since int64, opts ...Option) (Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, err
	}
	summary, err := Export(ctx, src, f, since, opts...)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return summary, err
}

// Read decodes a stream produced by Export.
func Read(in io.Reader) ([]record.Record, error) {
	gz, err := pgzip.NewReader(in)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var out []record.Record
	dec := json.NewDecoder(gz)
	for {
		var rec record.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}
