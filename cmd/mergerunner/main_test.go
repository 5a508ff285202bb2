package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/squareup/shardmerge/errors"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestRunCases(t *testing.T) {
	first := writeFile(t, "first.json", `{
	  // total per region
	  "columns": ["region", "total"],
	  "shards": [[["eu", 3], ["us", 4]], [["eu", 5]]],
	  "group_by": [{"column": "region"}],
	  "aggregations": [{"kind": "SUM", "output": 1}]
	}`)
	second := writeFile(t, "second.json", `{
	  "columns": ["n"],
	  "shards": [[[3], [1]], [[2]]]
	}`)
	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), []string{"--log-level", "warn", first, second}, out))
	require.Equal(t, "[\"eu\",8]\n[\"us\",4]\n[3]\n[1]\n[2]\n", out.String())
}

func TestRunWithConfigFile(t *testing.T) {
	config := writeFile(t, "mergerunner.hcl", `
max-memory-merge-rows = 2
cancel-check-interval = 10
`)
	c := writeFile(t, "case.json", `{
	  "columns": ["n"],
	  "shards": [[[1], [2]], [[2], [3]]],
	  "distinct": true
	}`)
	err := run(context.Background(), []string{"--config", config, c}, &bytes.Buffer{})
	require.True(t, errors.HasCode(err, errors.MemoryLimitExceeded), fmt.Sprintf("%v", err))
}

func TestRunInvalidConfig(t *testing.T) {
	c := writeFile(t, "case.json", `{"columns": ["n"], "shards": []}`)
	err := run(context.Background(), []string{"--cancel-check-interval", "0", c}, &bytes.Buffer{})
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
}

func TestRunMissingCase(t *testing.T) {
	err := run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	require.Error(t, err)
}
