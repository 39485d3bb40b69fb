package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coopreg/internal/cooperative/models"
	"coopreg/internal/platform/postgres"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

const cooperativeColumns = `id, name, email, phone_number, website_url, address,
	certificate, payment_receipt, status, created_at, updated_at`

// constraintFields maps unique index names onto the field they guard.
var constraintFields = map[string]string{
	"cooperatives_name_key":  "name",
	"cooperatives_email_key": "email",
}

// PostgresStore persists cooperatives in the cooperatives table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Cooperative) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO cooperatives (`+cooperativeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(c.ID), c.Name, c.Email, c.PhoneNumber, c.WebsiteURL, c.Address,
		c.Certificate, c.PaymentReceipt, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("insert cooperative", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, cooperativeID id.CooperativeID) (*models.Cooperative, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+cooperativeColumns+` FROM cooperatives WHERE id = $1`, uuid.UUID(cooperativeID))
	c, err := scanCooperative(row)
	if err != nil {
		return nil, fmt.Errorf("find cooperative: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Cooperative, error) {
	return s.query(ctx, `SELECT `+cooperativeColumns+` FROM cooperatives ORDER BY lower(name), id`)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Cooperative, error) {
	return s.query(ctx, `SELECT `+cooperativeColumns+` FROM cooperatives WHERE status = $1 ORDER BY lower(name), id`,
		string(status))
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate then
// mutate, and writes the result inside one transaction. The unique indexes
// re-check name and email at write time.
func (s *PostgresStore) Execute(ctx context.Context, cooperativeID id.CooperativeID, validate func(*models.Cooperative) error, mutate func(*models.Cooperative)) (*models.Cooperative, error) {
	var out *models.Cooperative
	err := postgres.WithinTx(ctx, s.db, func(ctx context.Context, q postgres.Querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT `+cooperativeColumns+` FROM cooperatives WHERE id = $1 FOR UPDATE`, uuid.UUID(cooperativeID))
		c, err := scanCooperative(row)
		if err != nil {
			return err
		}
		if err := validate(c); err != nil {
			return err
		}
		mutate(c)
		_, err = q.ExecContext(ctx, `
			UPDATE cooperatives SET
				name = $2, email = $3, phone_number = $4, website_url = $5, address = $6,
				certificate = $7, payment_receipt = $8, status = $9, updated_at = $10
			WHERE id = $1`,
			uuid.UUID(c.ID), c.Name, c.Email, c.PhoneNumber, c.WebsiteURL, c.Address,
			c.Certificate, c.PaymentReceipt, string(c.Status), c.UpdatedAt,
		)
		if err != nil {
			return mapWriteErr("update cooperative", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete locks the row, runs beforeDelete against it and removes it in one
// transaction. An error from beforeDelete rolls the transaction back.
func (s *PostgresStore) Delete(ctx context.Context, cooperativeID id.CooperativeID, beforeDelete func(*models.Cooperative) error) error {
	return postgres.WithinTx(ctx, s.db, func(ctx context.Context, q postgres.Querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT `+cooperativeColumns+` FROM cooperatives WHERE id = $1 FOR UPDATE`, uuid.UUID(cooperativeID))
		c, err := scanCooperative(row)
		if err != nil {
			return err
		}
		if beforeDelete != nil {
			if err := beforeDelete(c); err != nil {
				return err
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM cooperatives WHERE id = $1`, uuid.UUID(cooperativeID))
		if err != nil {
			return fmt.Errorf("delete cooperative: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete cooperative: %w", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Cooperative, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cooperatives: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Cooperative, 0)
	for rows.Next() {
		c, err := scanCooperative(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cooperative: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cooperatives: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCooperative(row rowScanner) (*models.Cooperative, error) {
	var (
		c      models.Cooperative
		rawID  uuid.UUID
		status string
	)
	err := row.Scan(&rawID, &c.Name, &c.Email, &c.PhoneNumber, &c.WebsiteURL, &c.Address,
		&c.Certificate, &c.PaymentReceipt, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	c.ID = id.CooperativeID(rawID)
	c.Status = models.Status(status)
	return &c, nil
}

func mapWriteErr(op string, err error) error {
	if constraint, ok := postgres.UniqueConstraint(err); ok {
		if field, known := constraintFields[constraint]; known {
			return sentinel.AlreadyUsed(field)
		}
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
