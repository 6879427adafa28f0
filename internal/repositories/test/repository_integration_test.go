package repositories_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/fingerprint"
	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"
	"github.com/docker/go-connections/nat"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestFingerprintRepository_RecordAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn, terminate := startPostgres(ctx, t)
	defer terminate()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	applyMigrations(ctx, t, pool)

	repo := repositories.NewFingerprintRepository(pool, log.NewStdLogger(io.Discard))

	digest, _, err := fingerprint.Compute(strings.NewReader("sample payload"))
	require.NoError(t, err)

	seen, err := repo.Lookup(ctx, digest)
	require.NoError(t, err)
	require.False(t, seen)

	inserted, err := repo.Record(ctx, digest)
	require.NoError(t, err)
	require.True(t, inserted)

	seen, err = repo.Lookup(ctx, digest)
	require.NoError(t, err)
	require.True(t, seen)

	first, err := repo.Get(ctx, digest)
	require.NoError(t, err)
	require.Equal(t, digest.String(), first.Fingerprint)
	require.False(t, first.FirstSeen.IsZero())

	// 重复登记不报错，且保留首次时间戳。
	insertedAgain, err := repo.Record(ctx, digest)
	require.NoError(t, err)
	require.False(t, insertedAgain)

	second, err := repo.Get(ctx, digest)
	require.NoError(t, err)
	require.True(t, second.FirstSeen.Equal(first.FirstSeen))

	other, _, err := fingerprint.Compute(strings.NewReader("different payload"))
	require.NoError(t, err)

	seen, err = repo.Lookup(ctx, other)
	require.NoError(t, err)
	require.False(t, seen)

	_, err = repo.Get(ctx, other)
	require.ErrorIs(t, err, repositories.ErrFingerprintNotFound)
}

func TestSubmissionRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn, terminate := startPostgres(ctx, t)
	defer terminate()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	applyMigrations(ctx, t, pool)

	repo := repositories.NewSubmissionRepository(pool, log.NewStdLogger(io.Discard))

	stagingKey := "pending/0f2c6f2a_clip.mp4"
	contentType := "video/mp4"

	created, err := repo.Upsert(ctx, repositories.UpsertSubmissionInput{
		StagingKey:       stagingKey,
		OriginalFilename: "clip.mp4",
		ContentType:      &contentType,
		SubmitterEmail:   "uploader@example.com",
		Category:         "travel",
	})
	require.NoError(t, err)
	require.Equal(t, po.SubmissionStatusPending, created.Status)
	require.NotNil(t, created.ContentType)
	require.Equal(t, contentType, *created.ContentType)
	require.Nil(t, created.RejectReason)
	require.Nil(t, created.PublicURL)
	require.False(t, created.CreatedAt.IsZero())

	// 重复确认刷新元数据但不重置状态。
	refreshed, err := repo.Upsert(ctx, repositories.UpsertSubmissionInput{
		StagingKey:       stagingKey,
		OriginalFilename: "clip.mp4",
		ContentType:      &contentType,
		SubmitterEmail:   "uploader@example.com",
		Category:         "nature",
	})
	require.NoError(t, err)
	require.Equal(t, "nature", refreshed.Category)
	require.Equal(t, po.SubmissionStatusPending, refreshed.Status)
	require.True(t, refreshed.CreatedAt.Equal(created.CreatedAt))

	publicURL := "https://storage.googleapis.com/library/published/2026/08/26/0f2c6f2a_clip.mp4"
	published, err := repo.MarkPublished(ctx, stagingKey, publicURL)
	require.NoError(t, err)
	require.Equal(t, po.SubmissionStatusPublished, published.Status)
	require.NotNil(t, published.PublicURL)
	require.Equal(t, publicURL, *published.PublicURL)
	require.Nil(t, published.RejectReason)

	// 终态只写一次：事件重投不能把已发布的行改写为拒绝。
	_, err = repo.MarkRejected(ctx, stagingKey, "SOURCE_UNAVAILABLE: staging object is gone")
	require.ErrorIs(t, err, repositories.ErrSubmissionNotFound)

	found, err := repo.Get(ctx, stagingKey)
	require.NoError(t, err)
	require.Equal(t, po.SubmissionStatusPublished, found.Status)
	require.NotNil(t, found.PublicURL)

	rejectedKey := "pending/9c1d54b7_other.mp4"
	_, err = repo.Upsert(ctx, repositories.UpsertSubmissionInput{
		StagingKey:       rejectedKey,
		OriginalFilename: "other.mp4",
		SubmitterEmail:   "uploader@example.com",
		Category:         "travel",
	})
	require.NoError(t, err)

	rejected, err := repo.MarkRejected(ctx, rejectedKey, "MODERATION_FLAGGED: Adult(95)")
	require.NoError(t, err)
	require.Equal(t, po.SubmissionStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	require.Equal(t, "MODERATION_FLAGGED: Adult(95)", *rejected.RejectReason)
	require.Nil(t, rejected.PublicURL)

	_, err = repo.MarkPublished(ctx, rejectedKey, publicURL)
	require.ErrorIs(t, err, repositories.ErrSubmissionNotFound)

	_, err = repo.Get(ctx, "pending/unknown.bin")
	require.ErrorIs(t, err, repositories.ErrSubmissionNotFound)

	_, err = repo.MarkPublished(ctx, "pending/unknown.bin", publicURL)
	require.ErrorIs(t, err, repositories.ErrSubmissionNotFound)

	_, err = repo.MarkRejected(ctx, "pending/unknown.bin", "whatever")
	require.ErrorIs(t, err, repositories.ErrSubmissionNotFound)
}

func startPostgres(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "moderation",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s:%s/moderation?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skip repository integration: failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/moderation?sslmode=disable", host, port.Port())
	cleanup := func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	}
	return dsn, cleanup
}

func applyMigrations(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := findMigrationsDir(t)
	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		paths = append(paths, filepath.Join(migrationsDir, entry.Name()))
	}
	sort.Strings(paths)

	for _, path := range paths {
		sqlBytes, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		_, execErr := pool.Exec(ctx, string(sqlBytes))
		require.NoErrorf(t, execErr, "apply migration %s", filepath.Base(path))
	}
}

func findMigrationsDir(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for dir != "" && dir != "/" {
		candidate := filepath.Join(dir, "migrations")
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("migrations directory not found from working directory")
	return ""
}
