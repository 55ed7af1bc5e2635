package testutils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	appsvc "github.com/smartmedishop/fraud-pipeline/services/fraud-api/app"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ServerOptions controls optional dependencies of the in-process server.
type ServerOptions struct {
	// ModelBaseURL points the scorer at a stub risk model. Empty keeps the
	// default unreachable address so every request exercises the rule path.
	ModelBaseURL string
	// KafkaBrokers wires the alert publisher at a broker, usually from
	// StartKafkaForTests. Empty leaves publishing disabled.
	KafkaBrokers string
}

// StartFraudAPIServer starts the fraud-api HTTP server in-process using NewApp
// against a disposable Postgres container. It returns the base URL and a
// cleanup function that should be deferred in tests.
func StartFraudAPIServer(t *testing.T, opts ServerOptions) (baseURL string, cleanup func()) {
	t.Helper()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	dsnNoProto, pgTerminate, err := StartPostgresForTests()
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}

	modelURL := opts.ModelBaseURL
	if modelURL == "" {
		// Nothing listens here; the gateway must recover via the rules.
		modelURL = "http://127.0.0.1:1"
	}

	// Configure environment variables; t.Setenv restores them after the test
	// so one server's config never leaks into the next.
	t.Setenv("APP_PORT", fmt.Sprintf("%d", port))
	t.Setenv("APP_PRIMARY_DB_ADDR", dsnNoProto)
	t.Setenv("APP_REPLICA_DB_ADDR", "")
	t.Setenv("APP_AI_MODEL_BASE_URL", modelURL)
	t.Setenv("APP_AI_MODEL_CONNECT_TIMEOUT", "300ms")
	t.Setenv("APP_AI_MODEL_READ_TIMEOUT", "2s")
	t.Setenv("APP_AI_MODEL_RETRY_BACKOFF", "50ms")
	t.Setenv("APP_KAFKA_BROKERS", opts.KafkaBrokers)
	t.Setenv("APP_REDIS_ADDR", "")
	t.Setenv("GIN_MODE", "test")

	// Build app and run server
	pkg.InitLogger()
	logger := pkg.Logger
	ctx := context.Background()
	srv, appCleanup, err := appsvc.NewApp(ctx, logger)
	if err != nil {
		pgTerminate()
		t.Fatalf("failed to build fraud-api app: %v", err)
	}

	baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	go func() {
		_ = srv.ListenAndServe()
	}()

	// Wait for readiness with timeout, allow time for migrations
	wctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := waitForReady(wctx, baseURL+"/health"); err != nil {
		_ = srv.Close()
		appCleanup()
		pgTerminate()
		t.Fatalf("fraud-api failed to become ready: %v", err)
	}

	seededUserID = seedUser(t, dsnNoProto)
	seededDSN = dsnNoProto

	cleanup = func() {
		ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
		defer c()
		_ = srv.Shutdown(ctx)
		appCleanup()
		pgTerminate()
	}
	return baseURL, cleanup
}

var seededUserID uuid.UUID
var seededDSN string

// GetSeededUserID returns the user inserted during server startup.
func GetSeededUserID() uuid.UUID { return seededUserID }

// SeedUserWithFraudHistory inserts a user with a prior fraud count so the
// fraud-history rule fires for their transactions.
func SeedUserWithFraudHistory(t *testing.T, fraudCount int) uuid.UUID {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, "postgres://"+seededDSN)
	if err != nil {
		t.Fatalf("failed to connect to postgres for seeding: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	id := uuid.New()
	_, err = conn.Exec(ctx,
		`INSERT INTO users (id, username, email, risk_profile, fraud_count) VALUES ($1, $2, $3, $4, $5)`,
		id, "fraud-history-"+id.String()[:8], id.String()[:8]+"@example.com", string(pkg.RiskLevelMedium), fraudCount)
	if err != nil {
		t.Fatalf("failed to insert seed user: %v", err)
	}
	return id
}

// StartPostgresForTests starts a PostgreSQL testcontainer. It returns a DSN
// without the `postgres://` prefix to match the app's expectations (the app
// prepends the protocol internally), and a termination func for cleanup.
func StartPostgresForTests() (dsnNoProto string, terminate func(), err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const (
		user     = "db_user"
		password = "db_password"
		dbName   = "fraud_pipeline"
	)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, e := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if e != nil {
		err = fmt.Errorf("failed to start postgres test container: %w", e)
		return
	}

	host, e := pgC.Host(ctx)
	if e != nil {
		_ = pgC.Terminate(context.Background())
		err = fmt.Errorf("failed to get postgres host: %w", e)
		return
	}
	port, e := pgC.MappedPort(ctx, "5432/tcp")
	if e != nil {
		_ = pgC.Terminate(context.Background())
		err = fmt.Errorf("failed to get mapped port: %w", e)
		return
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)

	terminate = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = pgC.Terminate(ctx)
	}

	dsnNoProto = strings.TrimPrefix(connStr, "postgres://")
	return
}

// StartKafkaForTests starts a single-node Kafka testcontainer for the alert
// publisher. It returns the bootstrap address and a termination func.
func StartKafkaForTests() (bootstrap string, terminate func(), err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc, e := tckafka.RunContainer(ctx)
	if e != nil {
		err = fmt.Errorf("failed to start kafka test container: %w", e)
		return
	}

	brokers, e := kc.Brokers(ctx)
	if e != nil || len(brokers) == 0 {
		_ = kc.Terminate(context.Background())
		err = fmt.Errorf("failed to resolve kafka brokers: %w", e)
		return
	}
	bootstrap = brokers[0]

	terminate = func() {
		ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
		defer c()
		_ = kc.Terminate(ctx)
	}
	return
}

func seedUser(t *testing.T, dsnNoProto string) uuid.UUID {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, "postgres://"+dsnNoProto)
	if err != nil {
		t.Fatalf("failed to connect to postgres for seeding: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	id := uuid.New()
	birth := time.Now().AddDate(-35, 0, 0)
	registered := time.Now().AddDate(0, -6, 0)
	_, err = conn.Exec(ctx,
		`INSERT INTO users (id, username, email, birth_date, registration_date, risk_profile) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "test-user", "test-user@example.com", birth, registered, string(pkg.RiskLevelLow))
	if err != nil {
		t.Fatalf("failed to insert seed user: %v", err)
	}
	return id
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func waitForReady(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	for {
		if ctx.Err() != nil {
			return fmt.Errorf("timeout waiting for %s", url)
		}
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 500 {
				return nil
			}
		}
		time.Sleep(150 * time.Millisecond)
	}
}
