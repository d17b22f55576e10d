// Package storage owns the embedded SQL store: schema, prepared upserts
// with field-preservation semantics, and the read paths used by both the
// daemon's RPC handlers and the `clankers query` CLI command.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	title TEXT,
	project_path TEXT,
	project_name TEXT,
	model TEXT,
	provider TEXT,
	source TEXT,
	status TEXT,
	prompt_tokens INTEGER,
	completion_tokens INTEGER,
	cost REAL,
	message_count INTEGER,
	tool_call_count INTEGER,
	permission_mode TEXT,
	created_at INTEGER,
	updated_at INTEGER,
	ended_at INTEGER
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT,
	text_content TEXT,
	model TEXT,
	source TEXT,
	prompt_tokens INTEGER,
	completion_tokens INTEGER,
	duration_ms INTEGER,
	created_at INTEGER,
	completed_at INTEGER,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

CREATE TABLE IF NOT EXISTS tools (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	message_id TEXT,
	tool_name TEXT NOT NULL,
	tool_input TEXT,
	tool_output TEXT,
	file_path TEXT,
	success BOOLEAN,
	error_message TEXT,
	duration_ms INTEGER,
	created_at INTEGER,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tools_session ON tools(session_id);
CREATE INDEX IF NOT EXISTS idx_tools_name ON tools(tool_name);
CREATE INDEX IF NOT EXISTS idx_tools_file ON tools(file_path);

CREATE TABLE IF NOT EXISTS session_errors (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	error_type TEXT,
	error_message TEXT,
	created_at INTEGER,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_session_errors_session ON session_errors(session_id);

CREATE TABLE IF NOT EXISTS compaction_events (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	tokens_before INTEGER,
	tokens_after INTEGER,
	messages_before INTEGER,
	messages_after INTEGER,
	created_at INTEGER,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_compaction_session ON compaction_events(session_id);
`

// Session stable fields (title, model, provider, source, status,
// permission_mode) survive a blank incoming value on re-upsert; created_at
// is immutable once set. Counters always take the latest reported value.
//
// title's default ("Untitled Session") must only apply the first time a
// row is written, never on a later merge with a blank title — otherwise
// the blank-incoming-value preservation rule below can never see a blank
// excluded.title, since a Go-side default would always supply one. The
// VALUES() subquery peeks at any already-stored title for this id so the
// default only ever fires when no row exists yet.
const upsertSessionSQL = `
INSERT INTO sessions (
	id, title, project_path, project_name, model, provider, source, status,
	prompt_tokens, completion_tokens, cost, message_count, tool_call_count,
	permission_mode, created_at, updated_at, ended_at
) VALUES (
	?,
	COALESCE(NULLIF(?, ''), (SELECT title FROM sessions WHERE id = ?), 'Untitled Session'),
	?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	model = CASE WHEN excluded.model IS NOT NULL AND excluded.model != ''
	             THEN excluded.model ELSE sessions.model END,
	provider = CASE WHEN excluded.provider IS NOT NULL AND excluded.provider != ''
	                THEN excluded.provider ELSE sessions.provider END,
	source = CASE WHEN excluded.source IS NOT NULL AND excluded.source != ''
	              THEN excluded.source ELSE sessions.source END,
	status = CASE WHEN excluded.status IS NOT NULL AND excluded.status != ''
	              THEN excluded.status ELSE sessions.status END,
	permission_mode = CASE WHEN excluded.permission_mode IS NOT NULL AND excluded.permission_mode != ''
	                       THEN excluded.permission_mode ELSE sessions.permission_mode END,
	project_path = excluded.project_path,
	project_name = excluded.project_name,
	prompt_tokens = excluded.prompt_tokens,
	completion_tokens = excluded.completion_tokens,
	cost = excluded.cost,
	message_count = COALESCE(excluded.message_count, sessions.message_count),
	tool_call_count = COALESCE(excluded.tool_call_count, sessions.tool_call_count),
	created_at = COALESCE(sessions.created_at, excluded.created_at),
	updated_at = excluded.updated_at,
	ended_at = COALESCE(excluded.ended_at, sessions.ended_at);
`

// Message stable fields (text_content, source, model) survive a blank
// incoming value; created_at is immutable once set.
const upsertMessageSQL = `
INSERT INTO messages (
	id, session_id, role, text_content, model, source,
	prompt_tokens, completion_tokens, duration_ms,
	created_at, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	text_content = CASE WHEN excluded.text_content IS NOT NULL AND excluded.text_content != ''
	                    THEN excluded.text_content ELSE messages.text_content END,
	source = CASE WHEN excluded.source IS NOT NULL AND excluded.source != ''
	              THEN excluded.source ELSE messages.source END,
	session_id = excluded.session_id,
	role = excluded.role,
	model = CASE WHEN excluded.model IS NOT NULL AND excluded.model != ''
	             THEN excluded.model ELSE messages.model END,
	prompt_tokens = excluded.prompt_tokens,
	completion_tokens = excluded.completion_tokens,
	duration_ms = excluded.duration_ms,
	created_at = COALESCE(messages.created_at, excluded.created_at),
	completed_at = excluded.completed_at;
`

// Tools, session errors and compaction events are append-mostly records;
// re-upserts are expected to carry the fuller picture (e.g. a tool call's
// output arriving after its invocation), so later writes simply win.
const upsertToolSQL = `
INSERT INTO tools (
	id, session_id, message_id, tool_name, tool_input, tool_output,
	file_path, success, error_message, duration_ms, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	message_id = COALESCE(excluded.message_id, tools.message_id),
	tool_input = COALESCE(excluded.tool_input, tools.tool_input),
	tool_output = excluded.tool_output,
	file_path = COALESCE(excluded.file_path, tools.file_path),
	success = excluded.success,
	error_message = excluded.error_message,
	duration_ms = excluded.duration_ms,
	created_at = COALESCE(tools.created_at, excluded.created_at);
`

const upsertSessionErrorSQL = `
INSERT INTO session_errors (
	id, session_id, error_type, error_message, created_at
) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	error_type = excluded.error_type,
	error_message = excluded.error_message,
	created_at = COALESCE(session_errors.created_at, excluded.created_at);
`

const upsertCompactionEventSQL = `
INSERT INTO compaction_events (
	id, session_id, tokens_before, tokens_after, messages_before, messages_after, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	tokens_before = excluded.tokens_before,
	tokens_after = excluded.tokens_after,
	messages_before = excluded.messages_before,
	messages_after = excluded.messages_after,
	created_at = COALESCE(compaction_events.created_at, excluded.created_at);
`

// Store owns the embedded SQL engine and the prepared upsert statements.
type Store struct {
	db                 *sql.DB
	upsertSession      *sql.Stmt
	upsertMessage      *sql.Stmt
	upsertTool         *sql.Stmt
	upsertSessionError *sql.Stmt
	upsertCompaction   *sql.Stmt
}

// Session is one conversation in a harness.
type Session struct {
	ID               string   `json:"id"`
	Title            *string  `json:"title,omitempty"`
	ProjectPath      *string  `json:"projectPath,omitempty"`
	ProjectName      *string  `json:"projectName,omitempty"`
	Model            *string  `json:"model,omitempty"`
	Provider         *string  `json:"provider,omitempty"`
	Source           *string  `json:"source,omitempty"`
	Status           *string  `json:"status,omitempty"`
	PromptTokens     *int64   `json:"promptTokens,omitempty"`
	CompletionTokens *int64   `json:"completionTokens,omitempty"`
	Cost             *float64 `json:"cost,omitempty"`
	MessageCount     *int64   `json:"messageCount,omitempty"`
	ToolCallCount    *int64   `json:"toolCallCount,omitempty"`
	PermissionMode   *string  `json:"permissionMode,omitempty"`
	CreatedAt        *int64   `json:"createdAt,omitempty"`
	UpdatedAt        *int64   `json:"updatedAt,omitempty"`
	EndedAt          *int64   `json:"endedAt,omitempty"`
}

// Message is one turn in a session.
type Message struct {
	ID               string  `json:"id"`
	SessionID        string  `json:"sessionId"`
	Role             string  `json:"role"`
	TextContent      string  `json:"textContent"`
	Model            *string `json:"model,omitempty"`
	Source           *string `json:"source,omitempty"`
	PromptTokens     *int64  `json:"promptTokens,omitempty"`
	CompletionTokens *int64  `json:"completionTokens,omitempty"`
	DurationMs       *int64  `json:"durationMs,omitempty"`
	CreatedAt        *int64  `json:"createdAt,omitempty"`
	CompletedAt      *int64  `json:"completedAt,omitempty"`
}

// Tool is one tool invocation by the assistant.
type Tool struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"sessionId"`
	MessageID    *string `json:"messageId,omitempty"`
	ToolName     string  `json:"toolName"`
	ToolInput    *string `json:"toolInput,omitempty"`
	ToolOutput   *string `json:"toolOutput,omitempty"`
	FilePath     *string `json:"filePath,omitempty"`
	Success      *bool   `json:"success,omitempty"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
	DurationMs   *int64  `json:"durationMs,omitempty"`
	CreatedAt    *int64  `json:"createdAt,omitempty"`
}

// SessionError is one error event on a session.
type SessionError struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"sessionId"`
	ErrorType    *string `json:"errorType,omitempty"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
	CreatedAt    *int64  `json:"createdAt,omitempty"`
}

// CompactionEvent is one conversation-compaction record.
type CompactionEvent struct {
	ID             string `json:"id"`
	SessionID      string `json:"sessionId"`
	TokensBefore   *int64 `json:"tokensBefore,omitempty"`
	TokensAfter    *int64 `json:"tokensAfter,omitempty"`
	MessagesBefore *int64 `json:"messagesBefore,omitempty"`
	MessagesAfter  *int64 `json:"messagesAfter,omitempty"`
	CreatedAt      *int64 `json:"createdAt,omitempty"`
}

// QueryResult is one row from ExecuteQuery, keyed by column name.
type QueryResult map[string]interface{}

// ErrOrphanReference is returned when a child entity references a session
// id that does not exist, surfaced by the foreign-key constraint.
var ErrOrphanReference = errors.New("referenced session does not exist")

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

func configureDb(db *sql.DB) error {
	// The daemon is the store's only writer; a single connection keeps
	// every caller serialized behind the engine's own lock instead of
	// fighting database/sql's pool over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDb creates the parent directory and schema if needed and reports
// whether the database file was newly created.
func EnsureDb(dbPath string) (bool, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	_, err := os.Stat(dbPath)
	created := os.IsNotExist(err)

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return false, err
	}
	defer db.Close()

	if err := configureDb(db); err != nil {
		return false, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return false, err
	}

	return created, nil
}

// Open opens the database in WAL mode with foreign keys enforced and
// prepares every upsert statement.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}

	if err := configureDb(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	upsertSession, err := db.Prepare(upsertSessionSQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	upsertMessage, err := db.Prepare(upsertMessageSQL)
	if err != nil {
		upsertSession.Close()
		db.Close()
		return nil, err
	}

	upsertTool, err := db.Prepare(upsertToolSQL)
	if err != nil {
		upsertSession.Close()
		upsertMessage.Close()
		db.Close()
		return nil, err
	}

	upsertSessionError, err := db.Prepare(upsertSessionErrorSQL)
	if err != nil {
		upsertSession.Close()
		upsertMessage.Close()
		upsertTool.Close()
		db.Close()
		return nil, err
	}

	upsertCompaction, err := db.Prepare(upsertCompactionEventSQL)
	if err != nil {
		upsertSession.Close()
		upsertMessage.Close()
		upsertTool.Close()
		upsertSessionError.Close()
		db.Close()
		return nil, err
	}

	return &Store{
		db:                 db,
		upsertSession:      upsertSession,
		upsertMessage:      upsertMessage,
		upsertTool:         upsertTool,
		upsertSessionError: upsertSessionError,
		upsertCompaction:   upsertCompaction,
	}, nil
}

// Close releases the prepared statements and the underlying connection.
func (s *Store) Close() error {
	s.upsertSession.Close()
	s.upsertMessage.Close()
	s.upsertTool.Close()
	s.upsertSessionError.Close()
	s.upsertCompaction.Close()
	return s.db.Close()
}

func asOrphanReference(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint failed") {
		return fmt.Errorf("%w: %v", ErrOrphanReference, err)
	}
	return err
}

// UpsertSession inserts or merges a session row. id is required by the
// caller (the RPC layer rejects an empty id before reaching here).
func (s *Store) UpsertSession(session *Session) error {
	promptTokens := int64(0)
	if session.PromptTokens != nil {
		promptTokens = *session.PromptTokens
	}
	completionTokens := int64(0)
	if session.CompletionTokens != nil {
		completionTokens = *session.CompletionTokens
	}
	cost := float64(0)
	if session.Cost != nil {
		cost = *session.Cost
	}

	_, err := s.upsertSession.Exec(
		session.ID,
		session.Title,
		session.ID,
		session.ProjectPath,
		session.ProjectName,
		session.Model,
		session.Provider,
		session.Source,
		session.Status,
		promptTokens,
		completionTokens,
		cost,
		session.MessageCount,
		session.ToolCallCount,
		session.PermissionMode,
		session.CreatedAt,
		session.UpdatedAt,
		session.EndedAt,
	)
	return err
}

// UpsertMessage inserts or merges a message row. id and session_id are
// required by the caller.
func (s *Store) UpsertMessage(msg *Message) error {
	promptTokens := int64(0)
	if msg.PromptTokens != nil {
		promptTokens = *msg.PromptTokens
	}
	completionTokens := int64(0)
	if msg.CompletionTokens != nil {
		completionTokens = *msg.CompletionTokens
	}

	_, err := s.upsertMessage.Exec(
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.TextContent,
		msg.Model,
		msg.Source,
		promptTokens,
		completionTokens,
		msg.DurationMs,
		msg.CreatedAt,
		msg.CompletedAt,
	)
	return asOrphanReference(err)
}

// UpsertTool inserts or merges a tool-invocation row.
func (s *Store) UpsertTool(tool *Tool) error {
	_, err := s.upsertTool.Exec(
		tool.ID,
		tool.SessionID,
		tool.MessageID,
		tool.ToolName,
		tool.ToolInput,
		tool.ToolOutput,
		tool.FilePath,
		tool.Success,
		tool.ErrorMessage,
		tool.DurationMs,
		tool.CreatedAt,
	)
	return asOrphanReference(err)
}

// UpsertSessionError inserts or merges a session-error row.
func (s *Store) UpsertSessionError(e *SessionError) error {
	_, err := s.upsertSessionError.Exec(
		e.ID,
		e.SessionID,
		e.ErrorType,
		e.ErrorMessage,
		e.CreatedAt,
	)
	return asOrphanReference(err)
}

// UpsertCompactionEvent inserts or merges a compaction-event row.
func (s *Store) UpsertCompactionEvent(event *CompactionEvent) error {
	_, err := s.upsertCompaction.Exec(
		event.ID,
		event.SessionID,
		event.TokensBefore,
		event.TokensAfter,
		event.MessagesBefore,
		event.MessagesAfter,
		event.CreatedAt,
	)
	return asOrphanReference(err)
}

// GetSessions returns sessions ordered by created_at descending, ties
// broken by id ascending. limit <= 0 means no limit.
func (s *Store) GetSessions(limit int) ([]Session, error) {
	query := `SELECT id, title, project_path, project_name, model, provider, source, status,
		prompt_tokens, completion_tokens, cost, message_count, tool_call_count,
		permission_mode, created_at, updated_at, ended_at
		FROM sessions ORDER BY created_at DESC, id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// GetSessionByID returns a session and its messages, ordered ascending by
// created_at.
func (s *Store) GetSessionByID(id string) (*Session, []Message, error) {
	row := s.db.QueryRow(`
		SELECT id, title, project_path, project_name, model, provider, source, status,
			prompt_tokens, completion_tokens, cost, message_count, tool_call_count,
			permission_mode, created_at, updated_at, ended_at
		FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.GetMessages(id)
	if err != nil {
		return nil, nil, err
	}

	return &session, messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var title, projectPath, projectName, model, provider, source, status, permissionMode sql.NullString
	var promptTokens, completionTokens, messageCount, toolCallCount, createdAt, updatedAt, endedAt sql.NullInt64
	var cost sql.NullFloat64

	err := row.Scan(
		&s.ID, &title, &projectPath, &projectName, &model, &provider, &source, &status,
		&promptTokens, &completionTokens, &cost, &messageCount, &toolCallCount,
		&permissionMode, &createdAt, &updatedAt, &endedAt,
	)
	if err != nil {
		return Session{}, err
	}

	if title.Valid {
		s.Title = &title.String
	}
	if projectPath.Valid {
		s.ProjectPath = &projectPath.String
	}
	if projectName.Valid {
		s.ProjectName = &projectName.String
	}
	if model.Valid {
		s.Model = &model.String
	}
	if provider.Valid {
		s.Provider = &provider.String
	}
	if source.Valid {
		s.Source = &source.String
	}
	if status.Valid {
		s.Status = &status.String
	}
	if promptTokens.Valid {
		s.PromptTokens = &promptTokens.Int64
	}
	if completionTokens.Valid {
		s.CompletionTokens = &completionTokens.Int64
	}
	if cost.Valid {
		s.Cost = &cost.Float64
	}
	if messageCount.Valid {
		s.MessageCount = &messageCount.Int64
	}
	if toolCallCount.Valid {
		s.ToolCallCount = &toolCallCount.Int64
	}
	if permissionMode.Valid {
		s.PermissionMode = &permissionMode.String
	}
	if createdAt.Valid {
		s.CreatedAt = &createdAt.Int64
	}
	if updatedAt.Valid {
		s.UpdatedAt = &updatedAt.Int64
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Int64
	}

	return s, nil
}

// GetMessages returns a session's messages ordered ascending by created_at.
func (s *Store) GetMessages(sessionID string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, role, text_content, model, source,
			prompt_tokens, completion_tokens, duration_ms, created_at, completed_at
		FROM messages WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var model, source sql.NullString
		var promptTokens, completionTokens, durationMs, createdAt, completedAt sql.NullInt64

		err := rows.Scan(
			&m.ID, &m.SessionID, &m.Role, &m.TextContent, &model, &source,
			&promptTokens, &completionTokens, &durationMs, &createdAt, &completedAt,
		)
		if err != nil {
			return nil, err
		}

		if model.Valid {
			m.Model = &model.String
		}
		if source.Valid {
			m.Source = &source.String
		}
		if promptTokens.Valid {
			m.PromptTokens = &promptTokens.Int64
		}
		if completionTokens.Valid {
			m.CompletionTokens = &completionTokens.Int64
		}
		if durationMs.Valid {
			m.DurationMs = &durationMs.Int64
		}
		if createdAt.Valid {
			m.CreatedAt = &createdAt.Int64
		}
		if completedAt.Valid {
			m.CompletedAt = &completedAt.Int64
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

var writeKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE",
	"REPLACE", "MERGE", "UPSERT", "ATTACH", "DETACH", "REINDEX", "VACUUM",
	"PRAGMA", "BEGIN", "COMMIT", "ROLLBACK", "SAVEPOINT", "RELEASE",
}

// ExecuteQuery runs a read-only query. Statements must begin with SELECT
// or WITH and must not contain any write keyword; both checks happen
// before the engine ever sees the statement.
func (s *Store) ExecuteQuery(query string) ([]QueryResult, error) {
	upperSQL := strings.ToUpper(strings.TrimSpace(query))
	for _, keyword := range writeKeywords {
		if strings.HasPrefix(upperSQL, keyword) || strings.Contains(upperSQL, " "+keyword+" ") {
			return nil, fmt.Errorf("write operations are not allowed from the CLI: %s statements are blocked", keyword)
		}
	}

	if !strings.HasPrefix(upperSQL, "SELECT") && !strings.HasPrefix(upperSQL, "WITH") {
		return nil, fmt.Errorf("only SELECT or WITH queries are allowed from the CLI")
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []QueryResult
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(QueryResult)
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// GetTableSchema returns the column names of a table, used for CLI
// diagnostics only (never interpolated into a write statement).
func (s *Store) GetTableSchema(tableName string) ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull int
		var dfltValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}

	return columns, rows.Err()
}

// SuggestColumnNames returns table columns that fuzzily resemble input,
// used to produce "did you mean" hints for the query CLI command.
func (s *Store) SuggestColumnNames(tableName string, input string) ([]string, error) {
	columns, err := s.GetTableSchema(tableName)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	lowerInput := strings.ToLower(input)
	for _, col := range columns {
		lowerCol := strings.ToLower(col)
		if strings.Contains(lowerCol, lowerInput) || strings.Contains(lowerInput, lowerCol) {
			suggestions = append(suggestions, col)
		}
	}

	return suggestions, nil
}
