package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissLog_AppendFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing_keywords.log")
	l := NewMissLog(p)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 9, 8, 7, 0, time.Local) }

	require.NoError(t, l.Append("U123", "火鍋寶寶外星人"))
	require.NoError(t, l.Append("", "外星人"))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t,
		"2024-05-01 09:08:07 | U123 | 火鍋寶寶外星人\n2024-05-01 09:08:07 | anonymous | 外星人\n",
		string(raw))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "anonymous", entries[1].RequesterID)
	assert.Equal(t, "外星人", entries[1].Keyword)
}

func TestMissLog_ReadAllMissingFile(t *testing.T) {
	l := NewMissLog(filepath.Join(t.TempDir(), "none.log"))
	text, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, text)
}
