package actions

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"

	"github.com/lib/pq"

	"github.com/mbd888/actionreport/internal/retry"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads actions from a table with the columns
// id, event_date, payout, amount and subject_id. It only ever reads.
type PostgresSource struct {
	DB    *sql.DB
	Table string
	Retry retry.Policy // zero value uses retry.DefaultPolicy
}

// NewPostgresSource creates a source over table, defaulting to "actions".
func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if table == "" {
		table = "actions"
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid actions table name %q", table)
	}
	return &PostgresSource{DB: db, Table: table}, nil
}

// Load selects every row. NULL columns become empty strings, so a row with
// a NULL payout is simply non-commissionable. Timestamp columns arrive as
// time.Time and are rendered as RFC 3339 by database/sql.
//
// Connection failures are retried; SQL errors such as a missing table are not.
func (s *PostgresSource) Load(ctx context.Context) ([]Record, error) {
	if s.DB == nil {
		return nil, &InputError{Source: "postgres", Reason: "no database", Err: ErrInputMissing}
	}

	policy := s.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy
	}

	var records []Record
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		records, err = s.query(ctx)
		return classify(err)
	})
	if err != nil {
		return nil, &InputError{Source: "postgres:" + s.Table, Reason: "query failed", Err: err}
	}
	return records, nil
}

func (s *PostgresSource) query(ctx context.Context) ([]Record, error) {
	// #nosec G202 -- table name validated against identPattern and quoted
	query := `SELECT id::text, event_date, payout::text, amount::text, subject_id::text
		FROM ` + quoteTable(s.Table) + `
		ORDER BY event_date NULLS LAST, id`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []Record{}
	for rows.Next() {
		var id, eventDate, payout, amount, subject sql.NullString
		if err := rows.Scan(&id, &eventDate, &payout, &amount, &subject); err != nil {
			return nil, retry.Permanent(fmt.Errorf("scan action row: %w", err))
		}
		records = append(records, Record{
			ID:        id.String,
			EventDate: eventDate.String,
			Payout:    payout.String,
			Amount:    amount.String,
			SubjectID: subject.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate action rows: %w", err))
	}
	return records, nil
}

// classify marks err permanent unless it is already permanent or transient.
func classify(err error) error {
	var pe *retry.PermanentError
	if err == nil || errors.As(err, &pe) || transient(err) {
		return err
	}
	return retry.Permanent(err)
}

// transient reports whether err is worth another attempt: connection
// exceptions (class 08), resource exhaustion (53), operator intervention
// (57), or a broken connection below the SQL layer.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return true
		}
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func quoteTable(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return pq.QuoteIdentifier(name[:i]) + "." + pq.QuoteIdentifier(name[i+1:])
		}
	}
	return pq.QuoteIdentifier(name)
}
