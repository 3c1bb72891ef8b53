package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/service"
)

func TestMachine_StaleTicketIsRejected(t *testing.T) {
	m := NewMachine()
	stale, err := m.BeginIngestion(false, nil)
	require.NoError(t, err)

	m.Reset()
	fresh, err := m.BeginIngestion(true, nil)
	require.NoError(t, err)

	assert.False(t, m.CommitIngestion(stale, &service.Ingestion{Title: "old"}, "ack"))
	assert.False(t, m.FailIngestion(stale, domain.NewFailure(domain.KindTimeout, nil)))
	assert.False(t, m.Advance(stale, domain.Indexing))
	assert.Equal(t, domain.Parsing, m.Snapshot().State)

	assert.True(t, m.Advance(fresh, domain.Indexing))
	assert.Equal(t, domain.Indexing, m.Snapshot().State)
}

func TestMachine_AdvanceOnlyFromParsing(t *testing.T) {
	m := NewMachine()
	tk, err := m.BeginIngestion(false, nil)
	require.NoError(t, err)

	assert.False(t, m.Advance(tk, domain.Ready))
	assert.False(t, m.Advance(tk, domain.Indexing))
	assert.Equal(t, domain.Indexing, m.Snapshot().State)
}

func TestMachine_FinishQueryNeedsQuerying(t *testing.T) {
	m := NewMachine()
	assert.False(t, m.FinishQuery(0, "reply", nil))
	assert.Empty(t, m.Snapshot().Transcript)

	_, _, err := m.BeginQuery("q", nil)
	assert.ErrorIs(t, err, ErrNotAccepting)
}

func TestMachine_ProgressFromFailedIngestionIgnoredByNext(t *testing.T) {
	m := NewMachine()
	first, err := m.BeginIngestion(true, nil)
	require.NoError(t, err)
	require.True(t, m.FailIngestion(first, domain.NewFailure(domain.KindTimeout, nil)))

	second, err := m.BeginIngestion(true, nil)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	assert.False(t, m.Advance(first, domain.Indexing))
	assert.Equal(t, domain.Parsing, m.Snapshot().State)
	assert.False(t, m.FailIngestion(first, domain.NewFailure(domain.KindProcessing, nil)))
	assert.False(t, m.CommitIngestion(first, &service.Ingestion{Title: "late"}, "ack"))

	assert.True(t, m.Advance(second, domain.Indexing))
	assert.Equal(t, domain.Indexing, m.Snapshot().State)
}

func TestMachine_QueryTicketDoesNotOutliveItsQuery(t *testing.T) {
	m := NewMachine()
	tk, err := m.BeginIngestion(false, nil)
	require.NoError(t, err)
	doc := &service.Ingestion{Title: "notes.txt"}
	require.True(t, m.CommitIngestion(tk, doc, "ack"))

	first, got, err := m.BeginQuery("one?", nil)
	require.NoError(t, err)
	assert.Same(t, doc, got)
	require.True(t, m.FinishQuery(first, "reply one", nil))

	second, _, err := m.BeginQuery("two?", nil)
	require.NoError(t, err)
	assert.False(t, m.FinishQuery(first, "late reply", nil))
	assert.Equal(t, domain.Querying, m.Snapshot().State)
	require.True(t, m.FinishQuery(second, "reply two", nil))

	snap := m.Snapshot()
	assert.Equal(t, "notes.txt", snap.Title)
	require.Len(t, snap.Transcript, 5)
	assert.Equal(t, "reply two", snap.Transcript[4].Text)
}
