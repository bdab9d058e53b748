package models

import (
	"database/sql"
	"time"
)

// Match statuses as stored in the matches table.
const (
	MatchStatusWaiting  = "WAITING"
	MatchStatusActive   = "ACTIVE"
	MatchStatusFinished = "FINISHED"
)

// MatchRecord is a persisted match between two usernames.
type MatchRecord struct {
	ID              int64          `db:"id" json:"id"`
	Player1Username string         `db:"player1_username" json:"player1_username"`
	Player2Username string         `db:"player2_username" json:"player2_username"`
	Status          string         `db:"status" json:"status"`
	WinnerUsername  sql.NullString `db:"winner_username" json:"winner_username,omitempty"`
	Player1Score    int            `db:"player1_score" json:"player1_score"`
	Player2Score    int            `db:"player2_score" json:"player2_score"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	StartedAt       sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// MatchSummary is the API shape of a MatchRecord.
type MatchSummary struct {
	ID           int64      `json:"id"`
	Player1      string     `json:"player1"`
	Player2      string     `json:"player2"`
	Status       string     `json:"status"`
	Winner       string     `json:"winner,omitempty"`
	Player1Score int        `json:"player1_score"`
	Player2Score int        `json:"player2_score"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Summary converts the nullable columns for JSON responses.
func (r MatchRecord) Summary() MatchSummary {
	s := MatchSummary{
		ID:           r.ID,
		Player1:      r.Player1Username,
		Player2:      r.Player2Username,
		Status:       r.Status,
		Winner:       r.WinnerUsername.String,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		CreatedAt:    r.CreatedAt,
	}
	if r.StartedAt.Valid {
		t := r.StartedAt.Time
		s.StartedAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		s.CompletedAt = &t
	}
	return s
}
