package mergerunner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/merge"
)

// Runner runs cases against a merge engine and writes each merged row to the output as a JSON array on its own
// line.
type Runner struct {
	engine *merge.Engine
}

func NewRunner(engine *merge.Engine) *Runner {
	return &Runner{engine: engine}
}

// Run merges the shard rows of c and writes the result to out. It returns the number of rows written. Errors that
// are not merge errors are logged and replaced by an internal error carrying a reference to the log line.
func (r *Runner) Run(ctx context.Context, c *Case, out io.Writer) (int, error) {
	start := time.Now()
	rows, err := r.run(ctx, c, out)
	if err != nil {
		var merr errors.MergeError
		if !errors.As(err, &merr) {
			return rows, errors.LogInternalError(err)
		}
		return rows, merr
	}
	log.Debugf("case %q merged %d rows in %d ms", c.Name, rows, time.Since(start).Milliseconds())
	return rows, nil
}

func (r *Runner) run(ctx context.Context, c *Case, out io.Writer) (int, error) {
	stmt, err := c.Statement()
	if err != nil {
		return 0, err
	}
	cursor, err := r.engine.Merge(ctx, stmt, c.ShardCursors())
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := cursor.Close(); err != nil {
			log.Warnf("failed to close merged cursor: %v", err)
		}
	}()
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	line := make([]interface{}, cursor.ColumnCount())
	count := 0
	for {
		ok, err := cursor.Next()
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		for i := range line {
			v, err := cursor.ValueAt(i)
			if err != nil {
				return count, err
			}
			line[i] = jsonValue(v)
		}
		if err := enc.Encode(line); err != nil {
			return count, errors.WithStack(err)
		}
		count++
	}
	if err := w.Flush(); err != nil {
		return count, errors.WithStack(err)
	}
	return count, nil
}

// jsonValue maps a merged value to what is written for it. Decimals are written as JSON numbers and binary
// values as strings.
func jsonValue(v common.Value) interface{} {
	switch val := v.(type) {
	case decimal.Decimal:
		return json.Number(val.String())
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return val
	}
}
