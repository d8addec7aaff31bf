package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/lumin/internal/board"
)

// Key prefixes
const (
	prefixPerft    = "perft/"
	prefixAnalysis = "best/"
)

// ErrNotFound is returned when no record exists for a position.
var ErrNotFound = errors.New("storage: record not found")

// Options configures Open.
type Options struct {
	Dir      string // Database directory; ignored when InMemory is set
	InMemory bool
	Logger   *zerolog.Logger // nil uses the global logger
}

// PerftRecord is a cached perft result for one position and depth.
type PerftRecord struct {
	FEN       string              `json:"fen"`
	Depth     int                 `json:"depth"`
	Nodes     uint64              `json:"nodes"`
	Divide    []board.DivideEntry `json:"divide,omitempty"`
	Elapsed   time.Duration       `json:"elapsed"`
	CreatedAt time.Time           `json:"created_at"`
}

// AnalysisRecord is a cached search result.
type AnalysisRecord struct {
	FEN       string    `json:"fen"`
	Move      string    `json:"move"`
	Score     int       `json:"score"`
	Depth     int       `json:"depth"`
	Nodes     uint64    `json:"nodes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps BadgerDB. Values are JSON compressed with zstd.
type Store struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     zerolog.Logger
}

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("component", "storage").Logger()

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			dir, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("resolve data dir: %w", err)
			}
			opts.Dir = dir
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts.Logger = badgerLogger{log: logger}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		encoder.Close()
		decoder.Close()
		return nil, fmt.Errorf("open badger at %q: %w", opts.Dir, err)
	}

	logger.Debug().Str("dir", opts.Dir).Bool("in_memory", opts.InMemory).Msg("store-opened")
	return &Store{db: db, encoder: encoder, decoder: decoder, log: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.encoder.Close()
	s.decoder.Close()
	s.db = nil
	s.log.Debug().Msg("store-closed")
	return err
}

// PositionKey reduces a FEN to placement, side, castling and en passant.
// The move clocks do not change perft counts or search results.
func PositionKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func perftKey(fen string, depth int) []byte {
	return []byte(fmt.Sprintf("%s%02d/%s", prefixPerft, depth, PositionKey(fen)))
}

func analysisKey(fen string) []byte {
	return []byte(prefixAnalysis + PositionKey(fen))
}

// SavePerft stores a perft result, replacing any previous one.
func (s *Store) SavePerft(rec PerftRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.put(perftKey(rec.FEN, rec.Depth), rec)
}

// LoadPerft returns the cached perft result for fen at depth, or
// ErrNotFound.
func (s *Store) LoadPerft(fen string, depth int) (PerftRecord, error) {
	var rec PerftRecord
	err := s.get(perftKey(fen, depth), &rec)
	return rec, err
}

// SaveAnalysis stores a search result unless a deeper one is already
// cached for the position.
func (s *Store) SaveAnalysis(rec AnalysisRecord) error {
	if prev, err := s.LoadAnalysis(rec.FEN); err == nil && prev.Depth > rec.Depth {
		return nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.put(analysisKey(rec.FEN), rec)
}

// LoadAnalysis returns the cached search result for fen, or ErrNotFound.
func (s *Store) LoadAnalysis(fen string) (AnalysisRecord, error) {
	var rec AnalysisRecord
	err := s.get(analysisKey(fen), &rec)
	return rec, err
}

// PerftRecords returns every cached perft result, ordered by depth.
func (s *Store) PerftRecords() ([]PerftRecord, error) {
	var out []PerftRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixPerft)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec PerftRecord
			if err := it.Item().Value(func(val []byte) error {
				return s.decode(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *Store) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	compressed := s.encoder.EncodeAll(data, nil)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, compressed)
	})
}

func (s *Store) get(key []byte, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.decode(val, v)
		})
	})
}

func (s *Store) decode(compressed []byte, v any) error {
	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return json.Unmarshal(data, v)
}

// badgerLogger routes badger's log output through zerolog. Badger's info
// messages are frequent, so they go out at debug level.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
