//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/iyhunko/academy-backend/internal/config"
	reposql "github.com/iyhunko/academy-backend/internal/repository/sql"
)

const migrationsDir = "../migrations"

// documentTables lists every table the migrations create, outbox first.
var documentTables = []string{"events", "products", "courses", "robogenius", "reviews", "users"}

// TestDB is a migrated Postgres instance running in a throwaway container.
type TestDB struct {
	DB       *sql.DB
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// SetupTestDB starts Postgres in docker and opens it through reposql.StartDB,
// so the tests go through the same connect-and-migrate path as the service.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if _, err := os.Stat(migrationsDir); err != nil {
		t.Fatalf("migrations directory %s: %s", migrationsDir, err)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("docker unavailable: %s", err)
	}
	pool.MaxWait = 2 * time.Minute

	dbConf := config.DB{User: "academy", Password: "secret", Name: "academy_test"}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + dbConf.User,
			"POSTGRES_PASSWORD=" + dbConf.Password,
			"POSTGRES_DB=" + dbConf.Name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("start postgres container: %s", err)
	}
	if err := resource.Expire(120); err != nil {
		t.Fatalf("set container expiry: %s", err)
	}

	dbConf.Host = "localhost"
	dbConf.Port = resource.GetPort("5432/tcp")
	t.Logf("postgres container listening on %s:%s", dbConf.Host, dbConf.Port)

	var db *sql.DB
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var startErr error
		db, startErr = reposql.StartDB(ctx, dbConf, "file://"+migrationsDir)
		return startErr
	})
	if err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("connect and migrate: %s", err)
	}

	return &TestDB{DB: db, Pool: pool, Resource: resource}
}

// Cleanup closes the connection and removes the container.
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()

	if tdb.DB != nil {
		if err := tdb.DB.Close(); err != nil {
			t.Errorf("close database: %s", err)
		}
	}
	if tdb.Pool != nil && tdb.Resource != nil {
		if err := tdb.Pool.Purge(tdb.Resource); err != nil {
			t.Errorf("purge container: %s", err)
		}
	}
}

// TruncateTables empties every document table and the outbox.
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()

	for _, table := range documentTables {
		if _, err := tdb.DB.ExecContext(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Fatalf("truncate %s: %s", table, err)
		}
	}
}
