package infra

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/internal/repository"

	// necessary imports to wire up the database drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DefaultVisibilityTimeout = 30 * time.Second
	DefaultMaxDeliveryCount  = 5
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// QueueStoreOptions tunes lease behaviour for every queue in a store.
type QueueStoreOptions struct {
	// VisibilityTimeout is how long a received item stays hidden before it is redelivered.
	VisibilityTimeout time.Duration
	// MaxDeliveryCount is the number of deliveries after which an item is dead-lettered
	// instead of handed out again.
	MaxDeliveryCount int
	// Now overrides the clock; tests use it to expire leases.
	Now func() time.Time
}

// QueueStore keeps any number of named queues in one SQL table.
type QueueStore struct {
	db      *sqlx.DB
	dialect dialect
	opts    QueueStoreOptions
}

// OpenQueueStore connects to the store described by connString:
//   - postgres://… or postgresql://… uses PostgreSQL
//   - sqlite://path, file:path or a bare path uses SQLite
func OpenQueueStore(connString string, opts QueueStoreOptions) (*QueueStore, error) {
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = DefaultVisibilityTimeout
	}
	if opts.MaxDeliveryCount <= 0 {
		opts.MaxDeliveryCount = DefaultMaxDeliveryCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var (
		db  *sqlx.DB
		d   dialect
		err error
	)
	switch {
	case strings.HasPrefix(connString, "postgres://"), strings.HasPrefix(connString, "postgresql://"):
		d = dialectPostgres
		db, err = sqlx.Open("postgres", connString)
	default:
		d = dialectSQLite
		var dsn string
		dsn, err = sqliteDSN(connString)
		if err == nil {
			db, err = sqlx.Open("sqlite", dsn)
		}
		if err == nil {
			// a single connection serialises writers and avoids SQLITE_BUSY
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open queue store")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping queue store")
	}

	s := &QueueStore{db: db, dialect: d, opts: opts}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func sqliteDSN(connString string) (string, error) {
	path := strings.TrimPrefix(connString, "sqlite://")
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", errors.New("empty sqlite path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "failed to create queue store directory")
		}
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}

func (s *QueueStore) migrate() error {
	seqColumn := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		seqColumn = "seq BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS queue_items (
			` + seqColumn + `,
			id TEXT NOT NULL UNIQUE,
			queue TEXT NOT NULL,
			body TEXT NOT NULL,
			dequeue_count INTEGER NOT NULL DEFAULT 0,
			enqueued_at BIGINT NOT NULL,
			visible_at BIGINT NOT NULL,
			lock_token TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_items_visible ON queue_items(queue, visible_at, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to migrate queue store")
		}
	}
	return nil
}

// Queue returns a handle on the named queue. Queues exist implicitly.
func (s *QueueStore) Queue(name string) repository.Queue {
	return &sqlQueue{store: s, name: name}
}

// Close closes the underlying database.
func (s *QueueStore) Close() error {
	return s.db.Close()
}

type itemRow struct {
	repository.QueueItem
	EnqueuedAtMs int64 `db:"enqueued_at"`
	VisibleAtMs  int64 `db:"visible_at"`
}

func (r itemRow) item() *repository.QueueItem {
	it := r.QueueItem
	it.EnqueuedAt = time.UnixMilli(r.EnqueuedAtMs)
	it.LockedUntil = time.UnixMilli(r.VisibleAtMs)
	return &it
}

type sqlQueue struct {
	store *QueueStore
	name  string
}

func (q *sqlQueue) Name() string { return q.name }

func (q *sqlQueue) Send(ctx context.Context, body string) (*repository.QueueItem, error) {
	return q.store.insert(ctx, q.name, body)
}

func (s *QueueStore) insert(ctx context.Context, queue, body string) (*repository.QueueItem, error) {
	now := s.opts.Now()
	item := &repository.QueueItem{
		ID:         ulid.Make().String(),
		Queue:      queue,
		Body:       body,
		EnqueuedAt: now,
	}

	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO queue_items (id, queue, body, dequeue_count, enqueued_at, visible_at, lock_token)
		VALUES (?, ?, ?, 0, ?, ?, '')
		RETURNING seq
	`), item.ID, queue, body, now.UnixMilli(), now.UnixMilli()).Scan(&item.SequenceNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send to queue %s", queue)
	}
	return item, nil
}

func (q *sqlQueue) Receive(ctx context.Context) (*repository.QueueItem, error) {
	for {
		item, err := q.lease(ctx)
		if err != nil {
			return nil, err
		}
		if item.DequeueCount <= q.store.opts.MaxDeliveryCount {
			return item, nil
		}
		if err := q.DeadLetter(ctx, item); err != nil {
			return nil, err
		}
	}
}

func (q *sqlQueue) lease(ctx context.Context) (*repository.QueueItem, error) {
	s := q.store
	now := s.opts.Now()
	lockedUntil := now.Add(s.opts.VisibilityTimeout)

	pick := `SELECT seq FROM queue_items WHERE queue = ? AND visible_at <= ? ORDER BY seq LIMIT 1`
	if s.dialect == dialectPostgres {
		pick += ` FOR UPDATE SKIP LOCKED`
	}
	query := s.db.Rebind(`
		UPDATE queue_items
		SET visible_at = ?, lock_token = ?, dequeue_count = dequeue_count + 1
		WHERE seq = (` + pick + `)
		RETURNING seq, id, queue, body, dequeue_count, enqueued_at, visible_at, lock_token
	`)

	var row itemRow
	err := s.db.QueryRowxContext(ctx, query, lockedUntil.UnixMilli(), uuid.NewString(), q.name, now.UnixMilli()).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoMessage
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to receive from queue %s", q.name)
	}
	return row.item(), nil
}

func (q *sqlQueue) Complete(ctx context.Context, item *repository.QueueItem) error {
	res, err := q.store.db.ExecContext(ctx, q.store.db.Rebind(
		`DELETE FROM queue_items WHERE seq = ? AND lock_token = ?`,
	), item.SequenceNumber, item.LockToken)
	return q.settled(res, err, "complete", item)
}

func (q *sqlQueue) Abandon(ctx context.Context, item *repository.QueueItem) error {
	res, err := q.store.db.ExecContext(ctx, q.store.db.Rebind(
		`UPDATE queue_items SET visible_at = ?, lock_token = '' WHERE seq = ? AND lock_token = ?`,
	), q.store.opts.Now().UnixMilli(), item.SequenceNumber, item.LockToken)
	return q.settled(res, err, "abandon", item)
}

func (q *sqlQueue) DeadLetter(ctx context.Context, item *repository.QueueItem) error {
	res, err := q.store.db.ExecContext(ctx, q.store.db.Rebind(
		`UPDATE queue_items SET queue = ?, visible_at = ?, lock_token = '', dequeue_count = 0 WHERE seq = ? AND lock_token = ?`,
	), repository.PoisonQueueName(q.name), q.store.opts.Now().UnixMilli(), item.SequenceNumber, item.LockToken)
	return q.settled(res, err, "dead-letter", item)
}

func (q *sqlQueue) settled(res sql.Result, err error, op string, item *repository.QueueItem) error {
	if err != nil {
		return errors.Wrapf(err, "failed to %s message %s on queue %s", op, item.ID, q.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to %s message %s on queue %s", op, item.ID, q.name)
	}
	if n == 0 {
		return errors.Wrapf(repository.ErrLockLost, "%s message %s on queue %s", op, item.ID, q.name)
	}
	return nil
}

func (q *sqlQueue) Depth(ctx context.Context) (int, error) {
	var n int
	if err := q.store.db.GetContext(ctx, &n, q.store.db.Rebind(
		`SELECT COUNT(*) FROM queue_items WHERE queue = ?`,
	), q.name); err != nil {
		return 0, errors.Wrapf(err, "failed to count queue %s", q.name)
	}
	return n, nil
}
