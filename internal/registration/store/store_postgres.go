package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coopreg/internal/platform/postgres"
	"coopreg/internal/registration/models"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

const registrationColumns = `id, name, registration_certificate, payment_receipt, email, phone_number,
	website_url, address, status, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Registration) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(r.ID), r.Name, r.RegistrationCertificate, r.PaymentReceipt, r.Email, r.PhoneNumber,
		r.WebsiteURL, r.Address, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("insert registration", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, uuid.UUID(registrationID))
	r, err := scanRegistration(row)
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Registration, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Registration, 0)
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

// Execute locks the row, validates, mutates and writes it back in one
// transaction, joining the caller's when there is one.
func (s *PostgresStore) Execute(ctx context.Context, registrationID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	var out *models.Registration
	err := postgres.WithinTx(ctx, s.db, func(ctx context.Context, q postgres.Querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, uuid.UUID(registrationID))
		r, err := scanRegistration(row)
		if err != nil {
			return err
		}
		if err := validate(r); err != nil {
			return err
		}
		mutate(r)
		_, err = q.ExecContext(ctx, `
			UPDATE registrations SET
				name = $2, registration_certificate = $3, payment_receipt = $4, email = $5,
				phone_number = $6, website_url = $7, address = $8, status = $9, updated_at = $10
			WHERE id = $1`,
			uuid.UUID(r.ID), r.Name, r.RegistrationCertificate, r.PaymentReceipt, r.Email,
			r.PhoneNumber, r.WebsiteURL, r.Address, r.Status, r.UpdatedAt,
		)
		if err != nil {
			return mapWriteErr("update registration", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete locks the row, runs beforeDelete against it and removes it in one
// transaction. An error from beforeDelete rolls the transaction back.
func (s *PostgresStore) Delete(ctx context.Context, registrationID id.RegistrationID, beforeDelete func(*models.Registration) error) error {
	return postgres.WithinTx(ctx, s.db, func(ctx context.Context, q postgres.Querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, uuid.UUID(registrationID))
		r, err := scanRegistration(row)
		if err != nil {
			return err
		}
		if beforeDelete != nil {
			if err := beforeDelete(r); err != nil {
				return err
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, uuid.UUID(registrationID))
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("delete registration: %w", err)
		} else if n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		r     models.Registration
		rawID uuid.UUID
	)
	err := row.Scan(&rawID, &r.Name, &r.RegistrationCertificate, &r.PaymentReceipt, &r.Email, &r.PhoneNumber,
		&r.WebsiteURL, &r.Address, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	r.ID = id.RegistrationID(rawID)
	return &r, nil
}

func mapWriteErr(op string, err error) error {
	if constraint, ok := postgres.UniqueConstraint(err); ok {
		if constraint == "registrations_email_key" {
			return sentinel.AlreadyUsed("email")
		}
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
