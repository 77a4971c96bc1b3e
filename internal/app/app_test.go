package app

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestRunRequiresKnownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without command")
	}
	if err := Run(context.Background(), []string{"launch"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error got %v", err)
	}
}

func TestDatabaseCommandsRequireURL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("COURSEMATES_DATABASE_URL", "")

	for _, cmd := range [][]string{{"seed"}, {"migrate", "up"}} {
		if err := Run(context.Background(), cmd); err == nil {
			t.Fatalf("expected %v to fail without a database url", cmd)
		}
	}
}

func TestPublishFixtures(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	bucket := &objectBucket{objects: map[string][]byte{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	t.Setenv("COURSEMATES_S3_BUCKET", "fixtures")
	t.Setenv("COURSEMATES_S3_ENDPOINT", server.URL)
	t.Setenv("COURSEMATES_S3_PUBLIC_BASE_URL", "https://cdn.coursemates.dev")

	out := captureStdout(t)
	if err := Run(context.Background(), []string{"publish-fixtures", "fixtures/v2.json"}); err != nil {
		t.Fatalf("publish-fixtures: %v", err)
	}

	if got := out.String(); got != "published fixtures to https://cdn.coursemates.dev/fixtures/v2.json\n" {
		t.Fatalf("unexpected output %q", got)
	}

	bucket.mu.Lock()
	_, ok := bucket.objects["/fixtures/fixtures/v2.json"]
	bucket.mu.Unlock()
	if !ok {
		t.Fatal("expected bundle uploaded to bucket")
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_activity.sql", "001_users.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	resolved, migrations, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if resolved != dir {
		t.Fatalf("expected absolute dir unchanged got %s", resolved)
	}
	if want := []string{"001_users.sql", "002_activity.sql"}; !reflect.DeepEqual(migrations, want) {
		t.Fatalf("migrations = %v want %v", migrations, want)
	}

	if _, _, err := listMigrations(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"syntax", &pgconn.PgError{Code: "42601"}, false},
		{"wrappedDeadline", errors.Join(errors.New("exec"), context.DeadlineExceeded), true},
		{"other", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("shouldRetryMigration(%v) = %v want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("first retry backoff = %v", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("second retry backoff = %v", got)
	}
	if got := migrationBackoff(20); got != migrationMaxBackoff {
		t.Fatalf("expected backoff capped at %v got %v", migrationMaxBackoff, got)
	}
	if migrationMaxBackoff < time.Second {
		t.Fatal("max backoff unexpectedly small")
	}
}
