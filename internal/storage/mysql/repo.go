package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"travel_genie/internal/domain"
)

const maxPage = 1000

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Repo is the transcript archive.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) SaveMessage(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx, insertMessageSQL,
		m.ID,
		m.SessionID,
		string(m.Role),
		m.Content,
		valStr(m.ProfileID),
		m.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save message %s: %w", m.ID, err)
	}
	return nil
}

// ListSession returns the last limit messages of a session, oldest first.
func (r *Repo) ListSession(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	items, err := r.query(ctx, listSessionSQL, sessionID, clamp(limit))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it.Message
	}
	return out, nil
}

// ListByRole pages through every archived message of one role in insertion
// order. NextSeq is set when more rows follow.
func (r *Repo) ListByRole(ctx context.Context, role domain.Role, q domain.ArchiveQuery) (domain.ArchivePage, error) {
	limit := clamp(q.Limit)
	// one extra row tells us whether there is a next page
	items, err := r.query(ctx, listByRoleSQL, string(role), q.AfterSeq, limit+1)
	if err != nil {
		return domain.ArchivePage{}, err
	}
	page := domain.ArchivePage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		next := page.Items[limit-1].Seq
		page.NextSeq = &next
	}
	return page, nil
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]domain.ArchivedMessage, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArchivedMessage
	for rows.Next() {
		var (
			am      domain.ArchivedMessage
			role    string
			profile sql.NullString
		)
		if err := rows.Scan(
			&am.Seq,
			&am.ID,
			&am.SessionID,
			&role,
			&am.Content,
			&profile,
			&am.Timestamp,
		); err != nil {
			return nil, err
		}
		am.Role = domain.Role(role)
		if profile.Valid {
			am.ProfileID = profile.String
		}
		am.Timestamp = am.Timestamp.UTC()
		out = append(out, am)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func clamp(limit int) int {
	if limit <= 0 || limit > maxPage {
		return maxPage
	}
	return limit
}
