package repository

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/set-night/firelinx/internal/domain"
)

// Journal records publish attempts.
type Journal interface {
	Record(ctx context.Context, e domain.JournalEntry) error
	Stats(ctx context.Context) (domain.JournalStats, error)
	Close() error
}

// OpenJournal picks the backend from the DSN: postgres:// or postgresql:// use
// PostgreSQL with migrations, sqlite:<path> uses SQLite, empty disables the journal.
func OpenJournal(ctx context.Context, dsn string, migrations fs.FS) (Journal, error) {
	switch {
	case dsn == "":
		return NopJournal{}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := NewJournalPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := MigrateJournal(dsn, migrations); err != nil {
			pool.Close()
			return nil, err
		}
		return NewAlertRepository(pool), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite:"))
	}
	return nil, fmt.Errorf("unsupported JOURNAL_DSN scheme in %q", redactDSN(dsn))
}

// NopJournal discards entries.
type NopJournal struct{}

func (NopJournal) Record(context.Context, domain.JournalEntry) error { return nil }

func (NopJournal) Stats(context.Context) (domain.JournalStats, error) {
	return domain.JournalStats{}, nil
}

func (NopJournal) Close() error { return nil }

func redactDSN(dsn string) string {
	scheme, _, ok := strings.Cut(dsn, ":")
	if !ok {
		return "<invalid>"
	}
	return scheme + ":..."
}
