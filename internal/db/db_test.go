package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	"github.com/iamfafakkk/minimalFreeRadius/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(config.DatabaseConfig{DSN: "file:" + filepath.Join(t.TempDir(), "radius-test.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func TestOpen_SQLiteAndEnsureSchema(t *testing.T) {
	conn := openTestDB(t)
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	if err := Ping(context.Background(), conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := EnsureSchema(conn); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := EnsureSchema(conn); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}
	for _, table := range []string{"nas", "radcheck", "radreply"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}

	row := models.RadCheck{Username: "alice01", Attribute: models.AttrCleartextPassword, Op: models.OpSet, Value: "secret"}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if row.ID == 0 {
		t.Fatalf("expected generated id")
	}
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		driver string
		dsn    string
		want   string
	}{
		{"", "file:radius.db", DialectSQLite},
		{"", "postgres://radius@localhost/radius", DialectPostgres},
		{"", "mysql://radius:pw@tcp(localhost:3306)/radius", DialectMySQL},
		{"mysql", "radius:pw@tcp(localhost:3306)/radius", DialectMySQL},
		{"postgres", "host=localhost user=radius", DialectPostgres},
	}
	for _, tt := range tests {
		dialector, err := dialectorFor(tt.driver, tt.dsn)
		if err != nil {
			t.Fatalf("dialectorFor(%q, %q): %v", tt.driver, tt.dsn, err)
		}
		if dialector.Name() != tt.want {
			t.Fatalf("dialectorFor(%q, %q)=%s, want %s", tt.driver, tt.dsn, dialector.Name(), tt.want)
		}
	}
	if _, err := dialectorFor("oracle", "whatever"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestCaseInsensitiveLikeExpr(t *testing.T) {
	conn := openTestDB(t)
	if got := CaseInsensitiveLikeExpr(conn, "username"); got != "LOWER(username) LIKE ?" {
		t.Fatalf("unexpected sqlite expression %q", got)
	}
	if got := ContainsPattern(conn, "AbC"); got != "%abc%" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := CaseInsensitiveLikeExpr(nil, "username"); got != "username LIKE ?" {
		t.Fatalf("unexpected default expression %q", got)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"mysql duplicate", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysqldriver.MySQLError{Number: 1045}, false},
		{"postgres unique", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres other", &pgconn.PgError{Code: "42P01"}, false},
		{"plain", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Fatalf("IsDuplicateKey()=%v, want %v", got, tt.want)
			}
		})
	}
}
