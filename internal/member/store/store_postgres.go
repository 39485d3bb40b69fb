package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coopreg/internal/member/models"
	"coopreg/internal/platform/postgres"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

const memberColumns = `id, name, established, email, phone_number, website_url, address,
	number_of_members, status, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *models.Member) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(m.ID), m.Name, m.Established, m.Email, m.PhoneNumber, m.WebsiteURL, m.Address,
		m.NumberOfMembers, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("insert member", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, uuid.UUID(memberID))
	m, err := scanMember(row)
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) ([]*models.Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+` FROM members WHERE lower(email) = lower($1) ORDER BY lower(name), id`, email)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY lower(name), id`)
}

func (s *PostgresStore) Execute(ctx context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	var out *models.Member
	err := postgres.WithinTx(ctx, s.db, func(ctx context.Context, q postgres.Querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, uuid.UUID(memberID))
		m, err := scanMember(row)
		if err != nil {
			return err
		}
		if err := validate(m); err != nil {
			return err
		}
		mutate(m)
		_, err = q.ExecContext(ctx, `
			UPDATE members SET
				name = $2, established = $3, email = $4, phone_number = $5, website_url = $6,
				address = $7, number_of_members = $8, status = $9, updated_at = $10
			WHERE id = $1`,
			uuid.UUID(m.ID), m.Name, m.Established, m.Email, m.PhoneNumber, m.WebsiteURL,
			m.Address, m.NumberOfMembers, m.Status, m.UpdatedAt,
		)
		if err != nil {
			return mapWriteErr("update member", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, memberID id.MemberID) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM members WHERE id = $1`, uuid.UUID(memberID))
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete member: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m     models.Member
		rawID uuid.UUID
	)
	err := row.Scan(&rawID, &m.Name, &m.Established, &m.Email, &m.PhoneNumber, &m.WebsiteURL, &m.Address,
		&m.NumberOfMembers, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	m.ID = id.MemberID(rawID)
	return &m, nil
}

func mapWriteErr(op string, err error) error {
	if constraint, ok := postgres.UniqueConstraint(err); ok {
		if constraint == "members_email_key" {
			return sentinel.AlreadyUsed("email")
		}
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
