package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"aegis-secure/internal/domain/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestEmailExists(t *testing.T) {
	mock := newMock(t)
	repo := NewEmailRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM email_messages WHERE user_id = $1 AND gmail_id = $2)`)).
		WithArgs("u1", "g1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsEmail(context.Background(), "u1", "g1")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestEmailUpsertKeepsStoredAssessment(t *testing.T) {
	mock := newMock(t)
	repo := NewEmailRepository(mock)

	conf := 0.8
	msg := &models.EmailMessage{
		GmailID: "g1", GmailEmail: "me@gmail.com", UserID: "u1",
		Subject: "hi", FromHeader: "A <a@example.com>", FromEmail: "a@example.com",
		CharColor: "#4285F4", TimestampMs: 1700000000000,
		RiskAssessment: models.RiskAssessment{Score: 12, Confidence: &conf},
	}

	mock.ExpectExec(`INSERT INTO email_messages .* ON CONFLICT \(gmail_id, user_id\) DO UPDATE SET `+
		`char_color = COALESCE\(NULLIF\(email_messages\.char_color, ''\), EXCLUDED\.char_color\)$`).
		WithArgs(
			pgxmock.AnyArg(), "g1", "me@gmail.com", "u1", "hi", "A <a@example.com>", "a@example.com",
			"#4285F4", "", "", int64(1700000000000),
			12.0, pgxmock.AnyArg(), "", "", "", "",
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.UpsertEmail(context.Background(), msg))
	require.NotEqual(t, uuid.Nil, msg.ID)
}

func TestEmailListRiskScores(t *testing.T) {
	mock := newMock(t)
	repo := NewEmailRepository(mock)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT spam_score\s+FROM email_messages`).
		WithArgs("u1", since.UnixMilli(), since).
		WillReturnRows(pgxmock.NewRows([]string{"spam_score"}).AddRow(10.0).AddRow(90.0))

	scores, err := repo.ListRiskScores(context.Background(), "u1", &since)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 90}, scores)
}

func TestSMSInsertAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewSMSRepository(mock)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO sms_messages`).
		WithArgs(
			pgxmock.AnyArg(), "u1", "+1555", "hello", int64(42), "inbox", "#EA4335",
			0.0, pgxmock.AnyArg(), "", "", "", "",
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.InsertSMS(ctx, &models.SMSMessage{
		UserID: "u1", Address: "+1555", Body: "hello", DateMs: 42, Type: "inbox", CharColor: "#EA4335",
	}))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sms_messages WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestSMSListNewestFirst(t *testing.T) {
	mock := newMock(t)
	repo := NewSMSRepository(mock)
	id := uuid.New()
	saved := time.Now().UTC()

	cols := []string{"id", "user_id", "address", "body", "date_ms", "type", "char_color",
		"spam_score", "confidence", "reasoning", "highlighted_text", "final_decision", "suggestion", "saved_at"}
	mock.ExpectQuery(`ORDER BY date_ms DESC`).
		WithArgs("u1", 500).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, "u1", "bank", "pay now", int64(2), "inbox", "#000", 80.0, pgtype.Float8{}, "urgent", "pay", "Scam", "Ignore", saved))

	msgs, err := repo.ListByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, id, msgs[0].ID)
	require.Equal(t, 80.0, msgs[0].Score)
	require.Nil(t, msgs[0].Confidence)
	require.Equal(t, "Scam", msgs[0].FinalDecision)
}

func TestProfileMissingReturnsNil(t *testing.T) {
	mock := newMock(t)
	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT user_id, notification_pref, push_tokens FROM user_profiles`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.GetProfile(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestProfileAddPushTokenIsSetAdd(t *testing.T) {
	mock := newMock(t)
	repo := NewProfileRepository(mock)

	mock.ExpectExec(`INSERT INTO user_profiles .* WHEN \$2 = ANY\(user_profiles.push_tokens\)`).
		WithArgs("u1", "tok").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.AddPushToken(context.Background(), "u1", "tok"))
}

func TestSenderColorFirstWriterWins(t *testing.T) {
	mock := newMock(t)
	repo := NewSenderColorRepository(mock)

	mock.ExpectExec(`INSERT INTO sender_colors .* ON CONFLICT \(sender\) DO NOTHING`).
		WithArgs("a@example.com", "#FFFFFF").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT color FROM sender_colors WHERE sender = $1`)).
		WithArgs("a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"color"}).AddRow("#4285F4"))

	color, err := repo.AssignIfAbsent(context.Background(), "a@example.com", "#FFFFFF")
	require.NoError(t, err)
	require.Equal(t, "#4285F4", color)
}

func TestMailboxAccountGetAndUpsert(t *testing.T) {
	mock := newMock(t)
	repo := NewMailboxAccountRepository(mock)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO mailbox_accounts .* NULLIF\(EXCLUDED.refresh_token, ''\)`).
		WithArgs("u1", "me@gmail.com", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.UpsertAccount(ctx, &models.MailboxAccount{UserID: "u1", GmailEmail: "me@gmail.com"}))

	connected := time.Now().UTC()
	mock.ExpectQuery(`FROM mailbox_accounts\s+WHERE user_id = \$1 AND gmail_email = \$2`).
		WithArgs("u1", "me@gmail.com").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "gmail_email", "refresh_token", "connected_at"}).
			AddRow("u1", "me@gmail.com", "rt", connected))

	a, err := repo.GetAccount(ctx, "u1", "me@gmail.com")
	require.NoError(t, err)
	require.Equal(t, "rt", a.RefreshToken)

	mock.ExpectQuery(`FROM mailbox_accounts`).
		WithArgs("u2", "x@gmail.com").
		WillReturnError(errors.New("connection reset"))
	_, err = repo.GetAccount(ctx, "u2", "x@gmail.com")
	require.Error(t, err)
}

func TestHistoryDeleteCommitsBothChannels(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sms_messages WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM email_messages WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCommit()

	removed, err := repo.DeleteHistory(context.Background(), "u1", []models.Channel{models.ChannelSMS, models.ChannelEmail})
	require.NoError(t, err)
	require.Equal(t, map[models.Channel]int64{models.ChannelSMS: 2, models.ChannelEmail: 5}, removed)
}

func TestHistoryDeleteRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sms_messages WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM email_messages WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	removed, err := repo.DeleteHistory(context.Background(), "u1", []models.Channel{models.ChannelSMS, models.ChannelEmail})
	require.ErrorContains(t, err, "lock timeout")
	require.Nil(t, removed)
}

func TestHistoryDeleteRejectsUnknownChannel(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := repo.DeleteHistory(context.Background(), "u1", []models.Channel{"fax"})
	require.Error(t, err)
}
