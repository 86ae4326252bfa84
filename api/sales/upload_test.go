package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunRows implements pgx.Rows over canned import-run values.
type stubRunRows struct {
	rows    [][]interface{}
	idx     int
	scanErr error
	rowsErr error
}

func (s *stubRunRows) Close()                                       {}
func (s *stubRunRows) Err() error                                   { return s.rowsErr }
func (s *stubRunRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (s *stubRunRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (s *stubRunRows) Values() ([]interface{}, error)               { return nil, nil }
func (s *stubRunRows) RawValues() [][]byte                          { return nil }
func (s *stubRunRows) Conn() *pgx.Conn                              { return nil }

func (s *stubRunRows) Next() bool {
	s.idx++
	return s.idx <= len(s.rows)
}

func (s *stubRunRows) Scan(dest ...interface{}) error {
	if s.scanErr != nil {
		return s.scanErr
	}
	src := s.rows[s.idx-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = src[i].(uuid.UUID)
		case *string:
			*p = src[i].(string)
		case *int:
			*p = src[i].(int)
		case **string:
			v, _ := src[i].(*string)
			*p = v
		case *time.Time:
			*p = src[i].(time.Time)
		case **time.Time:
			v, _ := src[i].(*time.Time)
			*p = v
		}
	}
	return nil
}

func TestCollectImportRuns(t *testing.T) {
	runID := uuid.New()
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(3 * time.Second)
	errMsg := ""

	rows := &stubRunRows{rows: [][]interface{}{
		{runID, "june.xlsx", "completed", 100, 95, 5, 2, 192, &errMsg, started, &finished},
	}}

	runs, err := collectImportRuns(rows)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "june.xlsx", runs[0].SourceFile)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 95, runs[0].RowsValid)
	require.NotNil(t, runs[0].FinishedAt)
	assert.True(t, runs[0].FinishedAt.Equal(finished))
}

func TestCollectImportRunsScanErrorAborts(t *testing.T) {
	scanErr := errors.New("cannot scan status")
	rows := &stubRunRows{
		rows:    [][]interface{}{{uuid.New()}, {uuid.New()}},
		scanErr: scanErr,
	}

	runs, err := collectImportRuns(rows)
	// A bad row fails the whole read; no partial response.
	assert.ErrorIs(t, err, scanErr)
	assert.Nil(t, runs)
}

func TestCollectImportRunsPropagatesRowsErr(t *testing.T) {
	rowsErr := errors.New("connection reset")
	rows := &stubRunRows{rowsErr: rowsErr}

	_, err := collectImportRuns(rows)
	assert.ErrorIs(t, err, rowsErr)
}
