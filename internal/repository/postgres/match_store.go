// Package postgres implements the Match Store on top of database/sql and
// lib/pq, grounded directly on the teacher's
// bracket/internal/repository/match.go.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/repository"
)

type matchStore struct {
	db *sql.DB
}

// NewMatchStore returns a repository.MatchStore backed by Postgres.
func NewMatchStore(db *sql.DB) repository.MatchStore {
	return &matchStore{db: db}
}

func (s *matchStore) GetByEntity(ctx context.Context, tournamentID string, level domain.Level, entityID string) ([]domain.Match, error) {
	query := `
		SELECT id, tournament_id, tournament_level, round_number, round_label, match_number,
		       community_id, county_id, region_id,
		       player1_id, player1_name, player1_community_id, player1_points,
		       player2_id, player2_name, player2_community_id, player2_points,
		       status, match_type, is_bye_match, is_auto_advancement, is_level_final,
		       determines_positions, waiting_player_id, waiting_player_name,
		       special_match, scheduled_date, scheduling_meta, searchable_text,
		       created_at, updated_at
		FROM matches
		WHERE tournament_id = $1 AND tournament_level = $2 AND entity_id = $3
		ORDER BY round_number, match_number
	`
	rows, err := s.db.QueryContext(ctx, query, tournamentID, string(level), entityID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *matchStore) GetByID(ctx context.Context, id string) (domain.Match, error) {
	query := `
		SELECT id, tournament_id, tournament_level, round_number, round_label, match_number,
		       community_id, county_id, region_id,
		       player1_id, player1_name, player1_community_id, player1_points,
		       player2_id, player2_name, player2_community_id, player2_points,
		       status, match_type, is_bye_match, is_auto_advancement, is_level_final,
		       determines_positions, waiting_player_id, waiting_player_name,
		       special_match, scheduled_date, scheduling_meta, searchable_text,
		       created_at, updated_at
		FROM matches
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, repository.ErrMatchNotFound
		}
		return domain.Match{}, err
	}
	return m, nil
}

// UpsertBatch writes matches inside a single transaction, one row per match,
// matching the teacher's CreateBatch pattern but using an upsert so retrying
// an idempotent round-generation call never double-inserts (spec.md §4.4).
func (s *matchStore) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (
			id, tournament_id, tournament_level, entity_id, round_number, round_label, match_number,
			community_id, county_id, region_id,
			player1_id, player1_name, player1_community_id, player1_points,
			player2_id, player2_name, player2_community_id, player2_points,
			status, match_type, is_bye_match, is_auto_advancement, is_level_final,
			determines_positions, waiting_player_id, waiting_player_name,
			special_match, scheduled_date, scheduling_meta, searchable_text,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		)
		ON CONFLICT (id) DO UPDATE SET
			player1_points = EXCLUDED.player1_points,
			player2_points = EXCLUDED.player2_points,
			status = EXCLUDED.status,
			scheduled_date = EXCLUDED.scheduled_date,
			scheduling_meta = EXCLUDED.scheduling_meta,
			updated_at = EXCLUDED.updated_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		entityID := entityIDOf(m)
		positions, err := json.Marshal(m.DeterminesPositions)
		if err != nil {
			return err
		}
		schedMeta, err := json.Marshal(m.SchedulingMeta)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(ctx,
			m.ID, m.TournamentID, string(m.TournamentLevel), entityID, m.RoundNumber, m.RoundLabel, m.MatchNumber,
			nullableString(m.CommunityID), nullableString(m.CountyID), nullableString(m.RegionID),
			m.Player1.ID, m.Player1.Name, nullableString(m.Player1.CommunityID), m.Player1Points,
			m.Player2.ID, m.Player2.Name, nullableString(m.Player2.CommunityID), m.Player2Points,
			string(m.Status), string(m.MatchType), m.IsByeMatch, m.IsAutoAdvancement, m.IsLevelFinal,
			positions, nullableString(m.WaitingPlayerID), nullableString(m.WaitingPlayerName),
			m.SpecialMatch, m.ScheduledDate, schedMeta, m.SearchableText,
			m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert match %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// entityIDOf derives the partitioning entity id a match belongs to, since
// the domain.Match struct itself keeps this implicit in its geography
// fields (spec.md §3 "Match").
func entityIDOf(m domain.Match) string {
	switch m.TournamentLevel {
	case domain.LevelCommunity:
		return m.CommunityID
	case domain.LevelCounty:
		return m.CountyID
	case domain.LevelRegional:
		return m.RegionID
	default:
		return domain.NationalEntityID
	}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (domain.Match, error) {
	var m domain.Match
	var level, status, matchType string
	var communityID, countyID, regionID sql.NullString
	var p1CommunityID, p2CommunityID sql.NullString
	var waitingID, waitingName sql.NullString
	var positionsRaw, schedMetaRaw []byte

	err := row.Scan(
		&m.ID, &m.TournamentID, &level, &m.RoundNumber, &m.RoundLabel, &m.MatchNumber,
		&communityID, &countyID, &regionID,
		&m.Player1.ID, &m.Player1.Name, &p1CommunityID, &m.Player1Points,
		&m.Player2.ID, &m.Player2.Name, &p2CommunityID, &m.Player2Points,
		&status, &matchType, &m.IsByeMatch, &m.IsAutoAdvancement, &m.IsLevelFinal,
		&positionsRaw, &waitingID, &waitingName,
		&m.SpecialMatch, &m.ScheduledDate, &schedMetaRaw, &m.SearchableText,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Match{}, err
	}

	m.TournamentLevel = domain.Level(level)
	m.Status = domain.MatchStatus(status)
	m.MatchType = domain.MatchType(matchType)
	m.CommunityID = communityID.String
	m.CountyID = countyID.String
	m.RegionID = regionID.String
	m.Player1.CommunityID = p1CommunityID.String
	m.Player2.CommunityID = p2CommunityID.String
	m.WaitingPlayerID = waitingID.String
	m.WaitingPlayerName = waitingName.String

	if len(positionsRaw) > 0 {
		if err := json.Unmarshal(positionsRaw, &m.DeterminesPositions); err != nil {
			return domain.Match{}, fmt.Errorf("unmarshal determines_positions: %w", err)
		}
	}
	if len(schedMetaRaw) > 0 {
		if err := json.Unmarshal(schedMetaRaw, &m.SchedulingMeta); err != nil {
			return domain.Match{}, fmt.Errorf("unmarshal scheduling_meta: %w", err)
		}
	}

	return m, nil
}
