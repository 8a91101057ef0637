package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("production logs json at info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, false)

		require.Equal(t, zerolog.InfoLevel, log.GetLevel())

		log.Debug().Msg("hidden")
		require.Empty(t, buf.String())

		log.Info().Str("task_id", "0001").Msg("created")
		require.Contains(t, buf.String(), `"task_id":"0001"`)
		require.Contains(t, buf.String(), `"message":"created"`)
	})

	t.Run("dev logs debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, true)

		require.Equal(t, zerolog.DebugLevel, log.GetLevel())

		log.Debug().Msg("visible")
		require.Contains(t, buf.String(), "visible")
	})
}
