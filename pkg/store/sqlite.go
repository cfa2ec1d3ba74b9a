package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"summitgo/pkg/db"
	"summitgo/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Compile-time interface checks.
var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Submissions ---

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *model.PendingSubmission) error {
	payload, err := encodePayload(sub)
	if err != nil {
		return err
	}

	var photos []byte
	if len(sub.Photos) > 0 {
		photos, err = json.Marshal(sub.Photos)
		if err != nil {
			return fmt.Errorf("failed to encode photos: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_submissions (id, kind, payload, photos, retry_count, last_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   retry_count = excluded.retry_count,
		   last_error = excluded.last_error`,
		sub.ID, string(sub.Kind), string(payload), nullableString(string(photos)),
		sub.RetryCount, nullableString(sub.LastError), sub.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) DeleteSubmission(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_submissions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context) ([]*model.PendingSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, photos, retry_count, last_error, created_at
		 FROM pending_submissions ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PendingSubmission
	for rows.Next() {
		var sub model.PendingSubmission
		var kind, payload string
		var photos, lastErr sql.NullString

		if err := rows.Scan(&sub.ID, &kind, &payload, &photos, &sub.RetryCount, &lastErr, &sub.CreatedAt); err != nil {
			return nil, err
		}
		sub.Kind = model.SubmissionKind(kind)
		if lastErr.Valid {
			sub.LastError = lastErr.String
		}
		if err := decodePayload(&sub, payload); err != nil {
			// A row we can't decode shouldn't wedge the whole queue.
			slog.Error("Skipping undecodable pending submission", "id", sub.ID, "error", err)
			continue
		}
		if photos.Valid && photos.String != "" {
			if err := json.Unmarshal([]byte(photos.String), &sub.Photos); err != nil {
				slog.Error("Dropping undecodable photo list", "id", sub.ID, "error", err)
			}
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}

func encodePayload(sub *model.PendingSubmission) ([]byte, error) {
	switch sub.Kind {
	case model.KindTripReport:
		if sub.TripReport == nil {
			return nil, errors.New("trip report submission without payload")
		}
		return json.Marshal(sub.TripReport)
	case model.KindManualSummit:
		if sub.ManualSummit == nil {
			return nil, errors.New("manual summit submission without payload")
		}
		return json.Marshal(sub.ManualSummit)
	default:
		return nil, fmt.Errorf("unknown submission kind %q", sub.Kind)
	}
}

func decodePayload(sub *model.PendingSubmission, payload string) error {
	switch sub.Kind {
	case model.KindTripReport:
		sub.TripReport = &model.TripReportPayload{}
		return json.Unmarshal([]byte(payload), sub.TripReport)
	case model.KindManualSummit:
		sub.ManualSummit = &model.ManualSummitPayload{}
		return json.Unmarshal([]byte(payload), sub.ManualSummit)
	default:
		return fmt.Errorf("unknown submission kind %q", sub.Kind)
	}
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key)
	var val []byte
	if err := row.Scan(&val); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("Cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP`,
		key, val)
	return err
}

func (s *SQLiteStore) DeleteCache(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) DeleteCachePrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key LIKE ? ESCAPE '\'`, likePrefix(prefix))
	return err
}

func (s *SQLiteStore) ListCacheKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM cache WHERE key LIKE ? ESCAPE '\' ORDER BY key`, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// likePrefix escapes LIKE metacharacters so prefixes match literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer("%", `\%`, "_", `\_`)
	return r.Replace(prefix) + "%"
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM persistent_state WHERE key = ?`, key)
	var val string
	if err := row.Scan(&val); err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persistent_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, val)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM persistent_state WHERE key = ?`, key)
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
