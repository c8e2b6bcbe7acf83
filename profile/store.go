// Package profile keeps the saved passengers, contact and payment choice a
// fill request is built from. It is backed by SQLite.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/internal/dbopen"
)

var (
	// ErrNotFound is returned for a missing passenger, contact or payment.
	ErrNotFound = errors.New("profile: not found")
	// ErrIncomplete is returned by Request when the profile cannot yet
	// drive a fill.
	ErrIncomplete = errors.New("profile: incomplete")
)

const schema = `
CREATE TABLE IF NOT EXISTS passengers (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    age        INTEGER NOT NULL,
    gender     TEXT NOT NULL,
    berth      TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS contact (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    mobile     TEXT NOT NULL,
    email      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS payment (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    method     TEXT NOT NULL,
    upi_id     TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);
`

// Entry is a stored passenger.
type Entry struct {
	ID string `json:"id"`
	booking.Passenger
}

// Store is the profile database. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithIDGenerator replaces the uuid generator for passenger ids.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

// Open opens (creating if needed) the profile database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("profile: open: %w", err)
	}
	return newStore(db, opts), nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("profile: DB is required")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("profile: schema: %w", err)
	}
	return newStore(db, opts), nil
}

func newStore(db *sql.DB, opts []Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// AddPassenger validates and stores p. The name is trimmed and upper-cased
// the way the booking page expects it.
func (s *Store) AddPassenger(ctx context.Context, p booking.Passenger) (Entry, error) {
	p.Name = strings.ToUpper(strings.TrimSpace(p.Name))
	p.Gender = strings.TrimSpace(p.Gender)
	p.Berth = strings.TrimSpace(p.Berth)
	if err := booking.ValidatePassenger(p); err != nil {
		return Entry{}, err
	}

	e := Entry{ID: s.newID(), Passenger: p}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passengers (id, name, age, gender, berth, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, p.Name, p.Age, p.Gender, p.Berth, s.now().UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("profile: add passenger: %w", err)
	}
	s.logger.Info("profile: passenger added", "id", e.ID)
	return e, nil
}

// ListPassengers returns the passengers in the order they were added.
func (s *Store) ListPassengers(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, age, gender, berth FROM passengers ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("profile: list passengers: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Age, &e.Gender, &e.Berth); err != nil {
			return nil, fmt.Errorf("profile: scan passenger: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeletePassenger removes the passenger with id.
func (s *Store) DeletePassenger(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM passengers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("profile: delete passenger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: passenger %s", ErrNotFound, id)
	}
	s.logger.Info("profile: passenger deleted", "id", id)
	return nil
}

// SetContact validates and stores the contact details.
func (s *Store) SetContact(ctx context.Context, c booking.Contact) error {
	c.Mobile = strings.TrimSpace(c.Mobile)
	c.Email = strings.TrimSpace(c.Email)
	if err := booking.ValidateContact(c); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact (id, mobile, email, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET mobile = excluded.mobile, email = excluded.email, updated_at = excluded.updated_at`,
		c.Mobile, c.Email, s.now().Unix())
	if err != nil {
		return fmt.Errorf("profile: set contact: %w", err)
	}
	return nil
}

// Contact returns the stored contact details.
func (s *Store) Contact(ctx context.Context) (booking.Contact, error) {
	var c booking.Contact
	err := s.db.QueryRowContext(ctx, `SELECT mobile, email FROM contact WHERE id = 1`).Scan(&c.Mobile, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("%w: contact", ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("profile: contact: %w", err)
	}
	return c, nil
}

// SetPayment stores the payment choice. The UPI id is kept only for the
// UPI family.
func (s *Store) SetPayment(ctx context.Context, p booking.Payment) error {
	family, ok := booking.ParseMethod(p.Method)
	if !ok {
		return fmt.Errorf("%w: Payment.Method is not a known payment method", booking.ErrInvalidRequest)
	}
	if family == booking.MethodNone {
		return fmt.Errorf("%w: select a payment method", booking.ErrInvalidRequest)
	}
	upi := ""
	if family == booking.MethodUPI {
		upi = strings.TrimSpace(p.UPIID)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment (id, method, upi_id, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET method = excluded.method, upi_id = excluded.upi_id, updated_at = excluded.updated_at`,
		strings.TrimSpace(p.Method), upi, s.now().Unix())
	if err != nil {
		return fmt.Errorf("profile: set payment: %w", err)
	}
	return nil
}

// Payment returns the stored payment choice.
func (s *Store) Payment(ctx context.Context) (booking.Payment, error) {
	var p booking.Payment
	err := s.db.QueryRowContext(ctx, `SELECT method, upi_id FROM payment WHERE id = 1`).Scan(&p.Method, &p.UPIID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: payment", ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("profile: payment: %w", err)
	}
	return p, nil
}

// ClearPayment forgets the payment choice; later fills skip the payment
// step.
func (s *Store) ClearPayment(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payment`); err != nil {
		return fmt.Errorf("profile: clear payment: %w", err)
	}
	return nil
}

// Request builds the fill request of the saved profile. It needs at least
// one passenger and the contact details; payment is optional.
func (s *Store) Request(ctx context.Context) (*booking.FillRequest, error) {
	entries, err := s.ListPassengers(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: add at least one passenger", ErrIncomplete)
	}
	contact, err := s.Contact(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: add contact details", ErrIncomplete)
	}
	if err != nil {
		return nil, err
	}

	req := &booking.FillRequest{Contact: contact}
	for _, e := range entries {
		req.Passengers = append(req.Passengers, e.Passenger)
	}
	switch pay, err := s.Payment(ctx); {
	case err == nil:
		req.Payment = &pay
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return req, nil
}
