package oscarodin

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	validator "gopkg.in/go-playground/validator.v9"

	"github.com/samar-hassan/django-oscar-odin/query"
)

// DefaultBatchSize is the number of rows per lookup or insert statement
const DefaultBatchSize = 500

// ORM interface describes the storage behavior oscarodin needs: bulk lookups
// by natural key, bulk inserts, per-row updates, filtering and transactions
type ORM interface {
	Lookuper
	Insert(ctx context.Context, records []interface{}) error
	Update(ctx context.Context, records []interface{}, fields []string) error
	Save(ctx context.Context, record interface{}) error
	FilterModel(ctx context.Context, request FilterRequest) ([]interface{}, error)
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	InTransaction() bool
}

type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// PersistenceORM runs the ORM operations against a database/sql connection.
// It is not safe for concurrent use: an open transaction is shared by every
// call until Commit or Rollback.
type PersistenceORM struct {
	db          *sql.DB
	transaction *sql.Tx
	dialect     query.Dialect
	batchSize   int
	logger      *zap.Logger
	now         func() time.Time
	validate    *validator.Validate
}

// Option configures a PersistenceORM
type Option func(*PersistenceORM)

// WithDB runs the ORM against db instead of the package connection
func WithDB(db *sql.DB) Option {
	return func(p *PersistenceORM) {
		p.db = db
	}
}

// WithDialect sets the SQL dialect, postgres by default
func WithDialect(dialect query.Dialect) Option {
	return func(p *PersistenceORM) {
		p.dialect = dialect
	}
}

// WithBatchSize sets the number of rows per lookup or insert statement
func WithBatchSize(size int) Option {
	return func(p *PersistenceORM) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(p *PersistenceORM) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the function used to fill audit columns
func WithClock(now func() time.Time) Option {
	return func(p *PersistenceORM) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a new ORM and handles defaults
func New(opts ...Option) *PersistenceORM {
	p := &PersistenceORM{
		db:        GetConnection(),
		dialect:   query.Postgres,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
		now:       time.Now,
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dialect returns the SQL dialect of the ORM
func (p *PersistenceORM) Dialect() query.Dialect {
	return p.dialect
}

func (p *PersistenceORM) runner() (runner, error) {
	if p.transaction != nil {
		return p.transaction, nil
	}
	if p.db == nil {
		return nil, ErrNoConnection
	}
	return p.db, nil
}

// Begin starts a transaction used by every following call until Commit or
// Rollback
func (p *PersistenceORM) Begin(ctx context.Context) error {
	if p.transaction != nil {
		return ErrTransactionOpen
	}
	if p.db == nil {
		return ErrNoConnection
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	p.transaction = tx
	return nil
}

// Commit commits the open transaction
func (p *PersistenceORM) Commit() error {
	if p.transaction == nil {
		return ErrNoTransaction
	}
	err := p.transaction.Commit()
	p.transaction = nil
	return err
}

// Rollback aborts the open transaction
func (p *PersistenceORM) Rollback() error {
	if p.transaction == nil {
		return ErrNoTransaction
	}
	err := p.transaction.Rollback()
	p.transaction = nil
	return err
}

// InTransaction reports whether a transaction is open
func (p *PersistenceORM) InTransaction() bool {
	return p.transaction != nil
}

func (p *PersistenceORM) query(ctx context.Context, sqlString string, args []interface{}) ([]map[string]interface{}, error) {
	r, err := p.runner()
	if err != nil {
		return nil, err
	}
	rows, err := r.QueryContext(ctx, sqlString, args...)
	if err != nil {
		return nil, NewQueryError(err, sqlString)
	}
	results, err := query.Scan(rows)
	if err != nil {
		return nil, NewQueryError(err, sqlString)
	}
	return results, nil
}

func (p *PersistenceORM) exec(ctx context.Context, sqlString string, args []interface{}) (sql.Result, error) {
	r, err := p.runner()
	if err != nil {
		return nil, err
	}
	result, err := r.ExecContext(ctx, sqlString, args...)
	if err != nil {
		return nil, NewQueryError(err, sqlString)
	}
	return result, nil
}
