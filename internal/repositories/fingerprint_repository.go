package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-moderation/internal/fingerprint"
	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFingerprintNotFound 表示指纹尚未登记。
var ErrFingerprintNotFound = errors.New("fingerprint not recorded")

// FingerprintRepository 封装 moderation.fingerprints 账本的访问逻辑。
// 账本只增不删：同一指纹的重复登记保留首次写入的 first_seen。
type FingerprintRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewFingerprintRepository 构造仓储。
func NewFingerprintRepository(db *pgxpool.Pool, logger log.Logger) *FingerprintRepository {
	return &FingerprintRepository{
		db:  db,
		log: log.NewHelper(logger),
	}
}

const lookupFingerprintSQL = `
SELECT EXISTS (SELECT 1 FROM moderation.fingerprints WHERE fingerprint = $1)`

const recordFingerprintSQL = `
INSERT INTO moderation.fingerprints (fingerprint, first_seen)
VALUES ($1, now())
ON CONFLICT (fingerprint) DO NOTHING`

const getFingerprintSQL = `
SELECT fingerprint, first_seen
FROM moderation.fingerprints
WHERE fingerprint = $1`

// Lookup 判断指纹是否已经登记。
func (r *FingerprintRepository) Lookup(ctx context.Context, digest fingerprint.Digest) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, lookupFingerprintSQL, digest.String()).Scan(&exists); err != nil {
		r.log.WithContext(ctx).Errorf("lookup fingerprint failed: fingerprint=%s err=%v", digest, err)
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return exists, nil
}

// Record 登记指纹，返回是否为首次写入。
// 并发登记同一指纹时恰有一方返回 true，其余触达 ON CONFLICT 返回 false。
func (r *FingerprintRepository) Record(ctx context.Context, digest fingerprint.Digest) (bool, error) {
	tag, err := r.db.Exec(ctx, recordFingerprintSQL, digest.String())
	if err != nil {
		r.log.WithContext(ctx).Errorf("record fingerprint failed: fingerprint=%s err=%v", digest, err)
		return false, fmt.Errorf("record fingerprint: %w", err)
	}
	inserted := tag.RowsAffected() > 0
	if !inserted {
		r.log.WithContext(ctx).Debugf("fingerprint already recorded: fingerprint=%s", digest)
	}
	return inserted, nil
}

// Get 返回指纹的登记记录。
func (r *FingerprintRepository) Get(ctx context.Context, digest fingerprint.Digest) (*po.FingerprintRecord, error) {
	var record po.FingerprintRecord
	err := r.db.QueryRow(ctx, getFingerprintSQL, digest.String()).Scan(&record.Fingerprint, &record.FirstSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFingerprintNotFound
		}
		r.log.WithContext(ctx).Errorf("get fingerprint failed: fingerprint=%s err=%v", digest, err)
		return nil, fmt.Errorf("get fingerprint: %w", err)
	}
	return &record, nil
}

var _ interface {
	Lookup(context.Context, fingerprint.Digest) (bool, error)
	Record(context.Context, fingerprint.Digest) (bool, error)
	Get(context.Context, fingerprint.Digest) (*po.FingerprintRecord, error)
} = (*FingerprintRepository)(nil)
