package oscarodin

import (
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"

	"github.com/samar-hassan/django-oscar-odin/query"
)

var conn *sql.DB

// ConnectionProps describes the database oscarodin connects to. Pool settings
// left nil keep the database/sql defaults; durations are in seconds.
type ConnectionProps struct {
	ConnString   string
	Driver       string
	ServiceName  *string
	MaxIdleConns *int
	MaxOpenConns *int
	MaxIdleTime  *int
	MaxLifeTime  *int
}

func testConnection(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return err
	}

	if conn != nil {
		conn.Close()
	}
	conn = db
	return nil
}

func driverFor(name string) driver.Driver {
	if name == query.MySQL.Name {
		return &mysql.MySQLDriver{}
	}
	return &pq.Driver{}
}

// NewConnection opens and pings a database connection using the provided
// props. With a service name the connection is traced through dd-trace.
func NewConnection(props ConnectionProps) error {
	if props.Driver == "" {
		props.Driver = query.Postgres.Name
	}
	if _, err := query.DialectFor(props.Driver); err != nil {
		return err
	}

	var (
		db  *sql.DB
		err error
	)
	if props.ServiceName != nil {
		sqltrace.Register(
			props.Driver,
			driverFor(props.Driver),
			sqltrace.WithServiceName(*props.ServiceName),
		)
		db, err = sqltrace.Open(props.Driver, props.ConnString)
	} else {
		db, err = sql.Open(props.Driver, props.ConnString)
	}
	if err != nil {
		return err
	}

	if props.MaxIdleConns != nil {
		db.SetMaxIdleConns(*props.MaxIdleConns)
	}

	if props.MaxIdleTime != nil {
		db.SetConnMaxIdleTime(time.Duration(*props.MaxIdleTime) * time.Second)
	}

	if props.MaxLifeTime != nil {
		db.SetConnMaxLifetime(time.Duration(*props.MaxLifeTime) * time.Second)
	}

	if props.MaxOpenConns != nil {
		db.SetMaxOpenConns(*props.MaxOpenConns)
	}

	return testConnection(db)
}

// GetConnection gets a connection if it has already been initialized
func GetConnection() *sql.DB {
	return conn
}

// SetConnection allows clients to place an external database connection into oscarodin
func SetConnection(db *sql.DB) {
	conn = db
}

// CloseConnection closes the database connection
func CloseConnection() {
	if conn != nil {
		conn.Close()
		conn = nil
	}
}
