package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewMigrator(db, DriverSQLite).Up(ctx)
	require.NoError(t, err)
	return db
}

func ptr(f float64) *float64 { return &f }

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{Driver: DriverSQLite})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "oracle", DSN: "x"})
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

func TestMigrator(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrator(db, "sqlite3")

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.UpToDate)
	assert.Equal(t, []string{"0001_init.sql", "0002_turn_stage.sql"}, status.Pending)
	assert.Equal(t, 2, status.Total)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_turn_stage.sql"}, applied)

	applied, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.UpToDate)
	assert.Len(t, status.Applied, 2)

	_, err = NewMigrator(db, "mysql").Status(ctx)
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

func TestHistoryRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))
	session := uuid.New()

	user := UserTurn(session, "haedache")
	answer := AssistantTurn(session, "Rest in a dark room.", []string{"symptoms.html", "health-tips.html"}, ptr(0.75), "knowledge")
	require.NoError(t, repo.Append(ctx, user, answer))

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, 0, user.Position)
	assert.Equal(t, 1, answer.Position)

	require.NoError(t, repo.Append(ctx,
		UserTurn(session, "xyzzyplugh"),
		AssistantTurn(session, "Sorry.", nil, nil, "fallback"),
	))

	turns, err := repo.ListBySession(ctx, session)
	require.NoError(t, err)
	require.Len(t, turns, 4)

	for i, turn := range turns {
		assert.Equal(t, i, turn.Position)
		assert.Equal(t, session, turn.SessionID)
	}

	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "haedache", turns[0].Text)
	assert.Equal(t, []string{}, turns[0].Anchors)
	assert.Nil(t, turns[0].Confidence)

	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, []string{"symptoms.html", "health-tips.html"}, turns[1].Anchors)
	require.NotNil(t, turns[1].Confidence)
	assert.InDelta(t, 0.75, *turns[1].Confidence, 1e-9)
	assert.Equal(t, "knowledge", turns[1].Stage)
	assert.WithinDuration(t, time.Now(), turns[1].CreatedAt, time.Minute)

	assert.Equal(t, []string{}, turns[3].Anchors)
	assert.Equal(t, "fallback", turns[3].Stage)
}

func TestHistoryRepository_AppendValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))

	assert.NoError(t, repo.Append(ctx))
	assert.Error(t, repo.Append(ctx, UserTurn(uuid.Nil, "hi")))
	assert.Error(t, repo.Append(ctx, UserTurn(uuid.New(), "a"), UserTurn(uuid.New(), "b")))
}

func TestHistoryRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, second := uuid.New(), uuid.New()
	require.NoError(t, repo.Append(ctx, UserTurn(first, "fever")))
	clock = clock.Add(time.Minute)
	require.NoError(t, repo.Append(ctx, UserTurn(second, "cough"), UserTurn(second, "still coughing")))
	clock = clock.Add(time.Minute)
	require.NoError(t, repo.Append(ctx, UserTurn(first, "better now")))

	sessions, err := repo.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, first, sessions[0].ID)
	assert.Equal(t, 2, sessions[0].TurnCount)
	assert.True(t, sessions[0].UpdatedAt.Equal(time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC)))
	assert.True(t, sessions[0].CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, second, sessions[1].ID)
	assert.Equal(t, 2, sessions[1].TurnCount)

	limited, err := repo.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.DeleteSession(ctx, first))
	assert.ErrorIs(t, repo.DeleteSession(ctx, first), ErrNotFound)

	_, err = repo.ListBySession(ctx, first)
	assert.ErrorIs(t, err, ErrNotFound)

	sessions, err = repo.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestExporter(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))
	session := uuid.New()

	require.NoError(t, repo.Append(ctx,
		UserTurn(session, "chest pain, help"),
		AssistantTurn(session, "Call \"emergency\" services, now.", []string{"hotlines.html", "symptoms.html"}, ptr(1), "knowledge"),
	))

	exporter := NewExporter(repo)
	exporter.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, exporter.Export(ctx, &buf, session, FormatJSON))

		var transcript Transcript
		require.NoError(t, json.Unmarshal(buf.Bytes(), &transcript))
		assert.Equal(t, session, transcript.SessionID)
		require.Len(t, transcript.Turns, 2)
		assert.Equal(t, "chest pain, help", transcript.Turns[0].Text)
		assert.Equal(t, []string{"hotlines.html", "symptoms.html"}, transcript.Turns[1].Anchors)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, exporter.Export(ctx, &buf, session, FormatCSV))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"position", "timestamp", "role", "text", "anchors", "confidence"}, records[0])
		assert.Equal(t, "user", records[1][2])
		assert.Equal(t, "chest pain, help", records[1][3])
		assert.Equal(t, "", records[1][5])
		assert.Equal(t, `Call "emergency" services, now.`, records[2][3])
		assert.Equal(t, "hotlines.html symptoms.html", records[2][4])
		assert.Equal(t, "1.000", records[2][5])
	})

	t.Run("unknown session", func(t *testing.T) {
		err := exporter.Export(ctx, &bytes.Buffer{}, uuid.New(), FormatJSON)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}
