// Package database provides the recording layer for motiontrail.
//
// Sessions group the raw input stream (samples and gestures) as it was
// received by the daemon so it can be replayed and analyzed later. Only
// input is stored; renderer state is never persisted.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("database: session not found")

// Store defines recording persistence.
type Store interface {
	// CreateSession starts a new recording session.
	CreateSession(session *Session) error
	// EndSession stamps the session's end time.
	EndSession(sessionID string, endTime int64) error

	// InsertSample persists a single sample.
	InsertSample(sample *SampleRecord) error
	// BatchInsertSamples inserts multiple samples in a single transaction.
	BatchInsertSamples(samples []*SampleRecord) error
	// InsertGesture persists a gesture event.
	InsertGesture(gesture *GestureRecord) error

	// ListSessions returns sessions ordered by start_time DESC.
	ListSessions(filter SessionFilter) ([]*Session, error)
	// GetSession returns a session with its sample and gesture counts.
	GetSession(sessionID string) (*Session, error)
	// QuerySamples returns a session's samples in timestamp order.
	QuerySamples(sessionID string) ([]*SampleRecord, error)
	// QueryGestures returns a session's gestures in timestamp order.
	QueryGestures(sessionID string) ([]*GestureRecord, error)

	Close() error
}

// Session is one continuous recording.
type Session struct {
	SessionID string `json:"session_id"`
	Device    string `json:"device"`
	Source    string `json:"source"`
	StartTime int64  `json:"start_time"`
	EndTime   *int64 `json:"end_time,omitempty"`

	// Populated by GetSession and ListSessions.
	SampleCount  int `json:"sample_count"`
	GestureCount int `json:"gesture_count"`
}

// SampleRecord is a stored sample.
type SampleRecord struct {
	SessionID string  `json:"session_id"`
	Timestamp int64   `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
}

// GestureRecord is a stored gesture.
type GestureRecord struct {
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
	Gesture   string `json:"gesture"`
	// Origin is "device" for gestures sent by a client and "recognizer"
	// for gestures detected by the daemon.
	Origin string `json:"origin"`
}

// SessionFilter defines query parameters for session listing.
type SessionFilter struct {
	Device *string `json:"device,omitempty"`
	Since  *int64  `json:"since,omitempty"`
	Limit  int     `json:"limit"`
}

// DBService implements Store using SQLite.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertSample  *sql.Stmt
	stmtInsertGesture *sql.Stmt
}

// NewDBService opens (or creates) the database at path, applies the
// schema and prepares hot-path statements. Use ":memory:" in tests.
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// One connection: SQLite has a single writer, and ":memory:" databases
	// are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{db: db, path: path}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}
	return svc, nil
}

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertSample, err = s.db.Prepare(`
		INSERT INTO samples (session_id, timestamp, x, y, z) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSample: %w", err)
	}

	s.stmtInsertGesture, err = s.db.Prepare(`
		INSERT INTO gestures (session_id, timestamp, gesture, origin) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertGesture: %w", err)
	}
	return nil
}

// CreateSession persists a new session.
func (s *DBService) CreateSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, device, source, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
	`, session.SessionID, session.Device, session.Source, session.StartTime, session.EndTime)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", session.SessionID, err)
	}
	return nil
}

// EndSession sets the end time of a session.
func (s *DBService) EndSession(sessionID string, endTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE sessions SET end_time = ? WHERE session_id = ?`, endTime, sessionID)
	if err != nil {
		return fmt.Errorf("ending session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ending session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// InsertSample persists a single sample.
func (s *DBService) InsertSample(sample *SampleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.stmtInsertSample.Exec(sample.SessionID, sample.Timestamp, sample.X, sample.Y, sample.Z)
	if err != nil {
		return fmt.Errorf("inserting sample for session %s: %w", sample.SessionID, err)
	}
	return nil
}

// BatchInsertSamples inserts samples within a single transaction.
func (s *DBService) BatchInsertSamples(samples []*SampleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch sample transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := tx.Stmt(s.stmtInsertSample)
	for _, sample := range samples {
		if _, err := stmt.Exec(sample.SessionID, sample.Timestamp, sample.X, sample.Y, sample.Z); err != nil {
			return fmt.Errorf("batch inserting sample at %d: %w", sample.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch sample transaction: %w", err)
	}
	return nil
}

// InsertGesture persists a gesture event.
func (s *DBService) InsertGesture(g *GestureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin := g.Origin
	if origin == "" {
		origin = "device"
	}
	_, err := s.stmtInsertGesture.Exec(g.SessionID, g.Timestamp, g.Gesture, origin)
	if err != nil {
		return fmt.Errorf("inserting gesture for session %s: %w", g.SessionID, err)
	}
	return nil
}

const sessionColumns = `
	s.session_id, s.device, s.source, s.start_time, s.end_time,
	(SELECT COUNT(*) FROM samples WHERE session_id = s.session_id),
	(SELECT COUNT(*) FROM gestures WHERE session_id = s.session_id)`

// ListSessions returns sessions matching the filter, most recent first.
func (s *DBService) ListSessions(filter SessionFilter) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT` + sessionColumns + ` FROM sessions s WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Device != nil {
		query += ` AND s.device = ?`
		args = append(args, *filter.Device)
	}
	if filter.Since != nil {
		query += ` AND s.start_time >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY s.start_time DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetSession returns a single session.
func (s *DBService) GetSession(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT`+sessionColumns+` FROM sessions s WHERE s.session_id = ?`, sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return sess, err
}

// QuerySamples returns all samples of a session in timestamp order.
func (s *DBService) QuerySamples(sessionID string) ([]*SampleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT session_id, timestamp, x, y, z
		FROM samples
		WHERE session_id = ?
		ORDER BY timestamp ASC, sample_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying samples for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*SampleRecord
	for rows.Next() {
		r := &SampleRecord{}
		if err := rows.Scan(&r.SessionID, &r.Timestamp, &r.X, &r.Y, &r.Z); err != nil {
			return nil, fmt.Errorf("scanning sample row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryGestures returns all gestures of a session in timestamp order.
func (s *DBService) QueryGestures(sessionID string) ([]*GestureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT session_id, timestamp, gesture, origin
		FROM gestures
		WHERE session_id = ?
		ORDER BY timestamp ASC, gesture_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying gestures for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*GestureRecord
	for rows.Next() {
		g := &GestureRecord{}
		if err := rows.Scan(&g.SessionID, &g.Timestamp, &g.Gesture, &g.Origin); err != nil {
			return nil, fmt.Errorf("scanning gesture row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Close finalizes prepared statements and closes the database.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []*sql.Stmt{s.stmtInsertSample, s.stmtInsertGesture} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	err := row.Scan(&sess.SessionID, &sess.Device, &sess.Source, &sess.StartTime, &sess.EndTime,
		&sess.SampleCount, &sess.GestureCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session row: %w", err)
	}
	return sess, nil
}
