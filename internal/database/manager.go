package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	dbconfig "edumanage/pkg/database"
	"edumanage/pkg/interfaces"
	"edumanage/pkg/types"
)

// Manager implements the persistence gateway over SQLite. Reads run
// concurrently through the connection pool; all writes are funneled through a
// single goroutine because SQLite allows only one writer at a time.
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ interfaces.Storage = (*Manager)(nil)

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the database, applies the schema, and starts the write
// loop.
func NewManager(config *dbconfig.Config) (*Manager, error) {
	db, err := dbconfig.Open(config)
	if err != nil {
		return nil, err
	}

	if err := dbconfig.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

// writeLoop processes all write operations in a single goroutine. A failed
// write is retried once after a short backoff before the error is reported.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(m.db)
			if err != nil {
				log.Printf("database write failed, retrying in 5 seconds: %v", err)
				time.Sleep(5 * time.Second)
				err = op.operation(m.db)
				if err != nil {
					log.Printf("database write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-m.shutdown:
			return
		}
	}
}

// executeWrite queues a write operation and waits for its completion.
func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("database manager is closed")
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-m.shutdown:
		return fmt.Errorf("database manager is shutting down")
	}
}

// HealthCheck verifies the database is reachable.
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// DB exposes the underlying handle for schema tooling.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Close drains the write loop and closes the database.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	return m.db.Close()
}

// GetUser returns the staff account with the given identifier.
func (m *Manager) GetUser(ctx context.Context, id string) (*types.User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, employee_id, subjects, classes, department, is_active, created_at
		FROM users
		WHERE id = ?
	`

	var user types.User
	var subjectsJSON, classesJSON string

	err := m.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.EmployeeID,
		&subjectsJSON,
		&classesJSON,
		&user.Department,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := json.Unmarshal([]byte(subjectsJSON), &user.Subjects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subjects: %w", err)
	}
	if err := json.Unmarshal([]byte(classesJSON), &user.Classes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classes: %w", err)
	}

	return &user, nil
}

// UpsertUser inserts the staff account or refreshes an existing row in place.
func (m *Manager) UpsertUser(ctx context.Context, user *types.User) error {
	return m.executeWrite(func(db *sql.DB) error {
		subjectsJSON, err := json.Marshal(user.Subjects)
		if err != nil {
			return fmt.Errorf("failed to marshal subjects: %w", err)
		}
		classesJSON, err := json.Marshal(user.Classes)
		if err != nil {
			return fmt.Errorf("failed to marshal classes: %w", err)
		}

		query := `
			INSERT INTO users (id, email, first_name, last_name, role, employee_id, subjects, classes, department, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				email = excluded.email,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				role = excluded.role,
				employee_id = excluded.employee_id,
				subjects = excluded.subjects,
				classes = excluded.classes,
				department = excluded.department,
				is_active = excluded.is_active,
				updated_at = CURRENT_TIMESTAMP
		`
		_, err = db.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.Role,
			user.EmployeeID,
			string(subjectsJSON),
			string(classesJSON),
			user.Department,
			user.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return nil
	})
}
