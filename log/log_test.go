package log

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/errors"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONToFile(t *testing.T) {
	defer resetLogger()
	path := filepath.Join(t.TempDir(), "merge.log")
	cfg := &Config{Format: "json", Level: "debug", File: path}
	closer, err := cfg.Configure()
	require.NoError(t, err)
	require.Equal(t, log.DebugLevel, log.GetLevel())

	log.WithField("strategy", "OrderByStream").Debug("merging")
	require.NoError(t, closer.Close())
	b, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"destination":"`+path+`"`)
	require.Contains(t, string(b), `"strategy":"OrderByStream"`)
	require.Equal(t, os.Stderr, log.StandardLogger().Out)
}

func TestConfigureAppend(t *testing.T) {
	defer resetLogger()
	path := filepath.Join(t.TempDir(), "merge.log")
	for _, run := range []string{"first", "second"} {
		closer, err := (&Config{Format: "text", Level: "info", File: path, Append: true}).Configure()
		require.NoError(t, err)
		log.Info(run)
		require.NoError(t, closer.Close())
	}
	b, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(b), "\n"))
	require.Contains(t, string(b), "first")
	require.Contains(t, string(b), "second")

	closer, err := (&Config{File: path}).Configure()
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	b, err = ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestConfigureDefaultsToStderr(t *testing.T) {
	defer resetLogger()
	log.SetOutput(ioutil.Discard)
	closer, err := (&Config{File: "-"}).Configure()
	require.NoError(t, err)
	require.Equal(t, os.Stderr, log.StandardLogger().Out)
	require.Equal(t, log.InfoLevel, log.GetLevel())
	require.NoError(t, closer.Close())
}

func TestConfigureInvalid(t *testing.T) {
	defer resetLogger()
	_, err := (&Config{Format: "xml"}).Configure()
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))

	_, err = (&Config{Format: "text", Level: "loud"}).Configure()
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
}

func resetLogger() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.TextFormatter{})
}
