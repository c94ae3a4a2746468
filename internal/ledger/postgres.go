package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultCallTimeout = 5 * time.Second

// PostgresLedger persists user and token records in PostgreSQL. Every call is
// bounded by a timeout; deadline and connection failures are reported as
// ErrUnavailable so callers never assume partial state.
type PostgresLedger struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool, timeout time.Duration) *PostgresLedger {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &PostgresLedger{db: db, timeout: timeout}
}

// RegisterUser creates a user if no row exists for the (phone, email) pair.
func (l *PostgresLedger) RegisterUser(ctx context.Context, name, email, phone string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd, err := l.db.Exec(ctx, `INSERT INTO users (name, email, phone, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (phone, email) DO NOTHING`, name, email, phone, time.Now().UTC())
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

// IssueToken appends a token row owned by phone and returns the id the
// database assigned to it.
func (l *PostgresLedger) IssueToken(ctx context.Context, phone string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1)`, phone).Scan(&exists); err != nil {
		return 0, classify(err)
	}
	if !exists {
		return 0, ErrUnknownUser
	}

	var id int64
	err := l.db.QueryRow(ctx, `INSERT INTO tokens (owner_phone, redeemed, created_at)
        VALUES ($1, FALSE, $2)
        RETURNING id`, phone, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// RedeemToken flips the redeemed flag. The conditional update makes the first
// writer win: a second redeem matches zero unredeemed rows and is reported as
// ErrAlreadyRedeemed.
func (l *PostgresLedger) RedeemToken(ctx context.Context, tokenID int64) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd, err := l.db.Exec(ctx, `UPDATE tokens SET redeemed = TRUE
        WHERE id = $1 AND redeemed = FALSE`, tokenID)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tokens WHERE id = $1)`, tokenID).Scan(&exists); err != nil {
		return classify(err)
	}
	if !exists {
		return ErrUnknownToken
	}
	return ErrAlreadyRedeemed
}

// GetUserInfo fetches a user by its full (phone, email) identity.
func (l *PostgresLedger) GetUserInfo(ctx context.Context, phone, email string) (UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	row := l.db.QueryRow(ctx, `SELECT name, email, phone FROM users WHERE phone = $1 AND email = $2`, phone, email)
	return l.scanUser(ctx, row)
}

// GetUserByPhone fetches the user owning tokens issued against phone.
func (l *PostgresLedger) GetUserByPhone(ctx context.Context, phone string) (UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	row := l.db.QueryRow(ctx, `SELECT name, email, phone FROM users WHERE phone = $1`, phone)
	return l.scanUser(ctx, row)
}

// GetTokenInfo fetches a token row by id.
func (l *PostgresLedger) GetTokenInfo(ctx context.Context, tokenID int64) (TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var token TokenRecord
	var createdAt time.Time
	row := l.db.QueryRow(ctx, `SELECT id, redeemed, created_at, owner_phone FROM tokens WHERE id = $1`, tokenID)
	if err := row.Scan(&token.ID, &token.Redeemed, &createdAt, &token.OwnerPhone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRecord{}, ErrUnknownToken
		}
		return TokenRecord{}, classify(err)
	}
	token.CreatedAt = createdAt.UTC()
	return token, nil
}

func (l *PostgresLedger) scanUser(ctx context.Context, row pgx.Row) (UserRecord, error) {
	var user UserRecord
	if err := row.Scan(&user.Name, &user.Email, &user.Phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUnknownUser
		}
		return UserRecord{}, classify(err)
	}

	rows, err := l.db.Query(ctx, `SELECT id FROM tokens WHERE owner_phone = $1 ORDER BY id`, user.Phone)
	if err != nil {
		return UserRecord{}, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return UserRecord{}, classify(err)
		}
		user.TokenIDs = append(user.TokenIDs, id)
	}
	if err := rows.Err(); err != nil {
		return UserRecord{}, classify(err)
	}
	return user, nil
}

// classify maps transport-level failures to ErrUnavailable while letting
// domain sentinels pass through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errors.Join(ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	// Anything that is not a database verdict is a connectivity problem.
	return errors.Join(ErrUnavailable, err)
}
