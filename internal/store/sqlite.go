package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrEmailExists is returned by CreateUser when the email is already registered.
var ErrEmailExists = fmt.Errorf("email already registered")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        name TEXT NOT NULL,
        phone TEXT,
        location TEXT,
        preferred_language TEXT NOT NULL DEFAULT 'en',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chat_messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        message TEXT NOT NULL,
        response TEXT NOT NULL,
        message_type TEXT NOT NULL CHECK (message_type IN ('text', 'voice')),
        language TEXT NOT NULL,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS disease_detections (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        disease TEXT NOT NULL,
        confidence REAL NOT NULL,
        severity TEXT NOT NULL CHECK (severity IN ('Low', 'Medium', 'High')),
        treatment TEXT NOT NULL,
        description TEXT,
        prevention TEXT,
        plant_type TEXT,
        source TEXT NOT NULL,
        image_data TEXT,
        location TEXT,
        predictive_json TEXT,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, email, password_hash, name, COALESCE(phone, ''), COALESCE(location, ''), preferred_language, created_at, updated_at FROM users WHERE email = ?",
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Phone, &user.Location, &user.PreferredLanguage, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(user *User) error {
	existing, err := s.GetUserByEmail(user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailExists
	}

	user.ID = uuid.NewString()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "en"
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, email, password_hash, name, phone, location, preferred_language, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.Location, user.PreferredLanguage, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(id string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, email, password_hash, name, COALESCE(phone, ''), COALESCE(location, ''), preferred_language, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Phone, &user.Location, &user.PreferredLanguage, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Chat message methods

func (s *SQLiteStore) CreateChatMessage(msg *ChatMessage) error {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	if msg.Language == "" {
		msg.Language = "en"
	}

	stmt, err := s.db.Prepare("INSERT INTO chat_messages (id, user_id, message, response, message_type, language, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(msg.ID, msg.UserID, msg.Message, msg.Response, msg.MessageType, msg.Language, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

// GetChatMessagesByUser returns the user's most recent messages, capped at limit,
// in chronological order.
func (s *SQLiteStore) GetChatMessagesByUser(userID string, limit int) ([]ChatMessage, error) {
	query := `
        SELECT id, user_id, message, response, message_type, language, timestamp
        FROM (
            SELECT id, user_id, message, response, message_type, language, timestamp
            FROM chat_messages
            WHERE user_id = ?
            ORDER BY timestamp DESC
            LIMIT ?
        )
        ORDER BY timestamp ASC
    `
	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Message, &msg.Response, &msg.MessageType, &msg.Language, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ClearChatMessages deletes all of the user's messages. Clearing an empty
// history is not an error.
func (s *SQLiteStore) ClearChatMessages(userID string) error {
	_, err := s.db.Exec("DELETE FROM chat_messages WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	return nil
}

// Disease detection methods

func (s *SQLiteStore) CreateDetection(d *DiseaseDetection) error {
	d.ID = uuid.NewString()
	d.Timestamp = time.Now()

	stmt, err := s.db.Prepare(`INSERT INTO disease_detections
        (id, user_id, disease, confidence, severity, treatment, description, prevention, plant_type, source, image_data, location, predictive_json, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare detection insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(d.ID, d.UserID, d.Disease, d.Confidence, d.Severity, d.Treatment, d.Description, d.Prevention, d.PlantType, d.Source, d.ImageData, d.Location, d.PredictiveJSON, d.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute detection insert: %w", err)
	}
	return nil
}

// GetDetectionsByUser returns the user's detections, newest first, capped at limit.
func (s *SQLiteStore) GetDetectionsByUser(userID string, limit int) ([]DiseaseDetection, error) {
	query := `
        SELECT id, user_id, disease, confidence, severity, treatment,
               COALESCE(description, ''), COALESCE(prevention, ''), COALESCE(plant_type, ''),
               source, COALESCE(image_data, ''), COALESCE(location, ''), COALESCE(predictive_json, ''), timestamp
        FROM disease_detections
        WHERE user_id = ?
        ORDER BY timestamp DESC
        LIMIT ?
    `
	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []DiseaseDetection
	for rows.Next() {
		var d DiseaseDetection
		if err := rows.Scan(&d.ID, &d.UserID, &d.Disease, &d.Confidence, &d.Severity, &d.Treatment, &d.Description, &d.Prevention, &d.PlantType, &d.Source, &d.ImageData, &d.Location, &d.PredictiveJSON, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan detection row: %w", err)
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}
