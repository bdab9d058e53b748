package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playpong/backend/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/playpong/backend/internal/persistence")

// SQLGateway stores matches in the matches table through sqlx. Queries use
// ? placeholders and are rebound for the connected driver.
type SQLGateway struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLGateway(db *sqlx.DB) *SQLGateway {
	return &SQLGateway{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (g *SQLGateway) CreateMatch(ctx context.Context, player1, player2 string) (id int64, err error) {
	ctx, span := tracer.Start(ctx, "matches.create", trace.WithAttributes(
		attribute.String("match.player1", player1),
		attribute.String("match.player2", player2),
	))
	defer func() { endSpan(span, err) }()

	q := g.db.Rebind(`INSERT INTO matches (player1_username, player2_username, status, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	if err = g.db.GetContext(ctx, &id, q, player1, player2, models.MatchStatusWaiting, g.now()); err != nil {
		return 0, fmt.Errorf("create match: %w", err)
	}
	span.SetAttributes(attribute.Int64("match.record_id", id))
	return id, nil
}

func (g *SQLGateway) StartMatch(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "matches.start", trace.WithAttributes(attribute.Int64("match.record_id", id)))
	defer func() { endSpan(span, err) }()

	q := g.db.Rebind(`UPDATE matches SET status = ?, started_at = ? WHERE id = ?`)
	res, err := g.db.ExecContext(ctx, q, models.MatchStatusActive, g.now(), id)
	if err != nil {
		return fmt.Errorf("start match %d: %w", id, err)
	}
	return expectRow(res, id)
}

func (g *SQLGateway) CompleteMatch(ctx context.Context, id int64, winner string, score1, score2 int) (err error) {
	ctx, span := tracer.Start(ctx, "matches.complete", trace.WithAttributes(
		attribute.Int64("match.record_id", id),
		attribute.String("match.winner", winner),
		attribute.Int("match.score1", score1),
		attribute.Int("match.score2", score2),
	))
	defer func() { endSpan(span, err) }()

	var w sql.NullString
	if winner != "" {
		w = sql.NullString{String: winner, Valid: true}
	}
	q := g.db.Rebind(`UPDATE matches
		SET status = ?, winner_username = ?, player1_score = ?, player2_score = ?, completed_at = ?
		WHERE id = ?`)
	res, err := g.db.ExecContext(ctx, q, models.MatchStatusFinished, w, score1, score2, g.now(), id)
	if err != nil {
		return fmt.Errorf("complete match %d: %w", id, err)
	}
	return expectRow(res, id)
}

// GetMatch loads a single record.
func (g *SQLGateway) GetMatch(ctx context.Context, id int64) (rec models.MatchRecord, err error) {
	ctx, span := tracer.Start(ctx, "matches.get", trace.WithAttributes(attribute.Int64("match.record_id", id)))
	defer func() { endSpan(span, err) }()

	q := g.db.Rebind(`SELECT id, player1_username, player2_username, status, winner_username,
		player1_score, player2_score, created_at, started_at, completed_at
		FROM matches WHERE id = ?`)
	if err = g.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("get match %d: %w", id, err)
	}
	return rec, nil
}

// RecentMatches returns finished matches, newest first. A non-empty username
// limits the result to matches that player took part in.
func (g *SQLGateway) RecentMatches(ctx context.Context, username string, limit int) (recs []models.MatchRecord, err error) {
	ctx, span := tracer.Start(ctx, "matches.recent", trace.WithAttributes(
		attribute.String("match.username", username),
		attribute.Int("limit", limit),
	))
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, player1_username, player2_username, status, winner_username,
		player1_score, player2_score, created_at, started_at, completed_at
		FROM matches WHERE status = ?`
	args := []interface{}{models.MatchStatusFinished}
	if username != "" {
		query += ` AND (player1_username = ? OR player2_username = ?)`
		args = append(args, username, username)
	}
	query += ` ORDER BY completed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	if err = g.db.SelectContext(ctx, &recs, g.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return recs, nil
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for match %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
