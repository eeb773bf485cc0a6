package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDB is a Ledger persisted in a goleveldb database. Keys are the raw
// public key bytes and values the 4-byte big-endian counter.
type LevelDB struct {
	path string
	db   *leveldb.DB

	// mu serialises Advance so the read and the write form one step.
	mu        sync.Mutex
	readOpts  *opt.ReadOptions
	writeOpts *opt.WriteOptions
}

// OpenLevelDB opens or creates the database in the directory path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", path, err)
	}

	return &LevelDB{
		path:      path,
		db:        db,
		readOpts:  &opt.ReadOptions{},
		writeOpts: &opt.WriteOptions{Sync: true},
	}, nil
}

// Advance implements Ledger.
func (l *LevelDB) Advance(ctx context.Context, publicKey []byte, counter uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok, err := l.get(publicKey)
	if err != nil {
		return err
	}
	if ok && counter <= last {
		return fmt.Errorf("%w: counter %d, last seen %d", ErrReplay, counter, last)
	}

	var value [4]byte
	binary.BigEndian.PutUint32(value[:], counter)
	if err := l.db.Put(publicKey, value[:], l.writeOpts); err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return nil
}

// Last implements Ledger.
func (l *LevelDB) Last(ctx context.Context, publicKey []byte) (uint32, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	return l.get(publicKey)
}

func (l *LevelDB) get(publicKey []byte) (uint32, bool, error) {
	value, err := l.db.Get(publicKey, l.readOpts)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	if len(value) != 4 {
		return 0, false, fmt.Errorf("corrupt ledger entry in %s: %d bytes", l.path, len(value))
	}
	return binary.BigEndian.Uint32(value), true, nil
}

// Close releases the database and its file lock.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
