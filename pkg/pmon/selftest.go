package pmon

import (
	"context"
	"fmt"
	"io"
	"sort"

	"emperror.dev/errors"
	"github.com/goccy/go-json"

	"github.com/voluzi/pmon/pkg/record"
)

// RunSelfTest samples three times with manufactured timestamps starting at
// start and prints every record. Nothing is written to the archive.
func RunSelfTest(ctx context.Context, m *Monitor, w io.Writer, start int64) ([]record.Record, error) {
	steps := []struct{ now, last int64 }{
		{start, start},
		{start + 300, start},
		{start + 600, start + 300},
	}

	out := make([]record.Record, 0, len(steps))
	for _, step := range steps {
		rec := m.Sample(ctx, step.now, step.last)
		out = append(out, rec)

		b, err := json.Marshal(rec)
		if err != nil {
			return nil, errors.Wrap(err, "encode record")
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return nil, err
		}

		desc := m.Describe(rec)
		keys := make([]string, 0, len(desc))
		for k := range desc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", k, desc[k]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
