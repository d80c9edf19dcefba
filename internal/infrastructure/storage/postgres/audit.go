package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "invoicehub/internal/core/context"
	"invoicehub/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the size above which changes are stored zstd-compressed.
const DefaultCompressThreshold = 4 * 1024

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	_ audit.Recorder = (*AuditRecorder)(nil)
	_ audit.Reader   = (*AuditRecorder)(nil)
)

// auditRow mirrors sys_audit.
type auditRow struct {
	ID                int64           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          int64           `db:"entity_id"`
	Action            string          `db:"action"`
	UserID            *int64          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditRecorder writes audit entries through the ambient transaction.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	now               func() time.Time
}

// NewAuditRecorder creates a recorder. threshold <= 0 selects DefaultCompressThreshold.
func NewAuditRecorder(txManager *TxManager, threshold int) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

// encodeChanges returns the JSON column, the compressed column and the algorithm tag.
func (r *AuditRecorder) encodeChanges(changes map[string]any) (json.RawMessage, []byte, CompressionAlgo, error) {
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, nil, "", fmt.Errorf("marshal changes: %w", err)
	}
	if len(raw) > r.compressThreshold {
		return nil, r.encoder.EncodeAll(raw, nil), CompressionZstd, nil
	}
	return raw, nil, CompressionNone, nil
}

func (r *AuditRecorder) decodeChanges(row auditRow) (json.RawMessage, error) {
	if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
		out, err := r.decoder.DecodeAll(row.ChangesCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
		return out, nil
	}
	return row.Changes, nil
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, entityType string, entityID int64, action audit.Action, changes map[string]any) error {
	plain, compressed, algo, err := r.encodeChanges(changes)
	if err != nil {
		return err
	}

	var userID *int64
	if uid := appctx.GetUserID(ctx); uid != 0 {
		userID = &uid
	}

	query, args, err := psql.Insert("sys_audit").
		Columns("entity_type", "entity_id", "action", "user_id",
			"changes", "changes_compressed", "compression_algo", "created_at").
		Values(entityType, entityID, string(action), userID,
			plain, compressed, string(algo), r.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements audit.Reader.
func (r *AuditRecorder) History(ctx context.Context, entityType string, entityID int64, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := psql.
		Select("id", "entity_type", "entity_id", "action", "user_id",
			"changes", "changes_compressed", "compression_algo", "created_at").
		From("sys_audit").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		changes, err := r.decodeChanges(row)
		if err != nil {
			return nil, err
		}
		e := audit.Entry{
			ID:         row.ID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     audit.Action(row.Action),
			Changes:    changes,
			CreatedAt:  row.CreatedAt,
		}
		if row.UserID != nil {
			e.UserID = *row.UserID
		}
		entries = append(entries, e)
	}
	return entries, nil
}
