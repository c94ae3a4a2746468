package verifier

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnauthorized indicates the presented verifier credentials or session
// token were not accepted.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier is a pre-provisioned actor allowed to redeem tokens. The secret is
// stored as a bcrypt hash and never logged.
type Verifier struct {
	Username   string
	SecretHash []byte
}

// Directory looks up pre-provisioned verifiers. The core never creates or
// mutates verifiers; provisioning happens out of band.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (Verifier, error)
}

// PostgresDirectory implements Directory using PostgreSQL.
type PostgresDirectory struct {
	db *pgxpool.Pool
}

// NewPostgresDirectory builds a Postgres-backed verifier directory.
func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// FindByUsername fetches a verifier by its exact, case-sensitive username.
func (d *PostgresDirectory) FindByUsername(ctx context.Context, username string) (Verifier, error) {
	row := d.db.QueryRow(ctx, `SELECT username, secret_hash FROM verifiers WHERE username = $1`, username)
	var v Verifier
	if err := row.Scan(&v.Username, &v.SecretHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Verifier{}, ErrUnauthorized
		}
		return Verifier{}, err
	}
	return v, nil
}
