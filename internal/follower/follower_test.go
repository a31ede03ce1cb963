package follower

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/tracker/internal/models"
)

type recordingApplier struct {
	events []models.Event
	fail   bool
}

func (a *recordingApplier) Apply(_ context.Context, ev models.Event) error {
	if a.fail {
		return fmt.Errorf("reconciler unavailable")
	}
	a.events = append(a.events, ev)
	return nil
}

type fakeSource struct {
	head      string
	parent    string
	finalized string
	pending   []string
}

func (s *fakeSource) Head(context.Context) (string, string, error) {
	return s.head, s.parent, nil
}

func (s *fakeSource) FinalizedHead(context.Context) (string, error) {
	return s.finalized, nil
}

func (s *fakeSource) PendingTransactions(context.Context) ([]string, error) {
	return s.pending, nil
}

func TestPollOnceOrdersEvents(t *testing.T) {
	src := &fakeSource{head: "B1", parent: "G", finalized: "", pending: []string{"t1", "t2"}}
	rec := &recordingApplier{}
	var lastHead, lastFinalized string

	err := pollOnce(context.Background(), src, rec, &lastHead, &lastFinalized, slog.Default())
	require.NoError(t, err)

	// transactions are announced before the block that may settle them
	assert.Equal(t, []models.Event{
		models.NewTransaction{Tx: "t1"},
		models.NewTransaction{Tx: "t2"},
		models.NewBlock{Block: "B1", Parent: "G"},
	}, rec.events)
	assert.Equal(t, "B1", lastHead)
}

func TestPollOnceSkipsUnchangedHeads(t *testing.T) {
	src := &fakeSource{head: "B1", parent: "G", finalized: "B1"}
	rec := &recordingApplier{}
	var lastHead, lastFinalized string

	require.NoError(t, pollOnce(context.Background(), src, rec, &lastHead, &lastFinalized, slog.Default()))
	require.NoError(t, pollOnce(context.Background(), src, rec, &lastHead, &lastFinalized, slog.Default()))

	assert.Equal(t, []models.Event{
		models.NewBlock{Block: "B1", Parent: "G"},
		models.Finalized{Block: "B1"},
	}, rec.events, "a second poll with the same heads emits nothing")
}

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		want    models.Event
		wantErr string
	}{
		{
			name: "new transaction",
			line: `{"kind":"new_transaction","tx":"t1"}`,
			want: models.NewTransaction{Tx: "t1"},
		},
		{
			name: "new block",
			line: `{"kind":"new_block","block":"B1","parent":"G"}`,
			want: models.NewBlock{Block: "B1", Parent: "G"},
		},
		{
			name: "finalized",
			line: `{"kind":"finalized","block":"B1"}`,
			want: models.Finalized{Block: "B1"},
		},
		{
			name:    "unknown kind",
			line:    `{"kind":"reorg","block":"B1"}`,
			wantErr: `unknown event kind "reorg"`,
		},
		{
			name:    "transaction without hash",
			line:    `{"kind":"new_transaction"}`,
			wantErr: "without tx",
		},
		{
			name:    "block without hash",
			line:    `{"kind":"new_block","parent":"G"}`,
			wantErr: "without block",
		},
		{
			name:    "malformed json",
			line:    `{"kind":`,
			wantErr: "unexpected end of JSON input",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := decodeEvent([]byte(tc.line))
			if tc.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.want, ev)
			}
		})
	}
}

func writeJournal(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.ndjson")
	var data []byte
	for _, l := range lines {
		data = append(data, []byte(l+"\n")...)
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReplayAppliesInFileOrder(t *testing.T) {
	path := writeJournal(t,
		`{"kind":"new_transaction","tx":"t1"}`,
		``, // blank lines are skipped
		`{"kind":"new_block","block":"B1","parent":"G"}`,
		`{"kind":"finalized","block":"B1"}`,
	)
	rec := &recordingApplier{}

	err := Replay(context.Background(), path, rec, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []models.Event{
		models.NewTransaction{Tx: "t1"},
		models.NewBlock{Block: "B1", Parent: "G"},
		models.Finalized{Block: "B1"},
	}, rec.events)
}

func TestReplayStopsOnDecodeError(t *testing.T) {
	path := writeJournal(t,
		`{"kind":"new_transaction","tx":"t1"}`,
		`{"kind":"bogus"}`,
	)
	rec := &recordingApplier{}

	err := Replay(context.Background(), path, rec, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Len(t, rec.events, 1)
}

func TestReplayPropagatesApplyError(t *testing.T) {
	path := writeJournal(t, `{"kind":"new_transaction","tx":"t1"}`)
	rec := &recordingApplier{fail: true}

	err := Replay(context.Background(), path, rec, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconciler unavailable")
}

func TestReplayMissingJournal(t *testing.T) {
	err := Replay(context.Background(), filepath.Join(t.TempDir(), "absent"), &recordingApplier{}, slog.Default())
	assert.Error(t, err)
}
