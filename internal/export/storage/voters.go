package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
	"github.com/rollcall-hq/constituent-export/shared/postgresql"
)

// voterFilterKeys are the filter descriptor keys this extractor understands.
// Anything else in the descriptor is ignored here; the descriptor stays
// opaque to the rest of the pipeline.
var voterFilterKeys = []string{"gender", "city", "district"}

// Voters reads the voter dataset from PostgreSQL. All reads; this extractor
// never writes.
type Voters struct {
	db     *sqlx.DB
	qb     squirrel.StatementBuilderType
	logger *slog.Logger
}

// NewVoters creates a new Voters extractor.
func NewVoters(pg *postgresql.Client, logger *slog.Logger) *Voters {
	return &Voters{
		db:     pg.GetDB(),
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}
}

func (s *Voters) CountVoters(ctx context.Context, filters domain.Filters) (int, error) {
	query := s.applyFilters(s.qb.Select("COUNT(*)").From("voters"), filters)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, sqlQuery, args...); err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}

	return count, nil
}

func (s *Voters) FetchVoters(ctx context.Context, filters domain.Filters) ([]domain.Voter, error) {
	query := s.applyFilters(
		s.qb.Select(
			"voter_id", "voter_number", "full_name", "gender",
			"date_of_birth", "city", "district", "address",
		).From("voters"),
		filters,
	).OrderBy("voter_number ASC")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch query: %w", err)
	}

	var voters []domain.Voter
	if err := s.db.SelectContext(ctx, &voters, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch voters: %w", err)
	}

	s.logger.Debug("Voters fetched",
		slog.Int("count", len(voters)),
	)

	return voters, nil
}

// PhonesByVoterID bulk-loads phone entries for a batch of voters, each list
// ordered by sort_order ascending.
func (s *Voters) PhonesByVoterID(ctx context.Context, voterIDs []string) (map[string][]domain.PhoneEntry, error) {
	result := make(map[string][]domain.PhoneEntry, len(voterIDs))
	if len(voterIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT voter_id, phone_number, sort_order
		FROM voter_phones
		WHERE voter_id = ANY($1)
		ORDER BY voter_id, sort_order ASC
	`

	var entries []domain.PhoneEntry
	if err := s.db.SelectContext(ctx, &entries, query, pq.Array(voterIDs)); err != nil {
		return nil, fmt.Errorf("failed to fetch voter phones: %w", err)
	}

	for _, entry := range entries {
		result[entry.VoterID] = append(result[entry.VoterID], entry)
	}

	return result, nil
}

func (s *Voters) applyFilters(query squirrel.SelectBuilder, filters domain.Filters) squirrel.SelectBuilder {
	for _, key := range voterFilterKeys {
		if value, ok := filters[key]; ok {
			if str, ok := value.(string); ok && str != "" {
				query = query.Where(squirrel.Eq{key: str})
			}
		}
	}
	return query
}
