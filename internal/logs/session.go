package logs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SessionMetadata records one task execution, written as a JSON sidecar next
// to the combined stdout/stderr capture, adapted from the teacher's
// SessionMetadata (internal/logs/session.go) to this domain: one session per
// executed task rather than per MCP call.
type SessionMetadata struct {
	SessionID string     `json:"session_id"`
	TaskName  string     `json:"task_name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Success   *bool      `json:"success,omitempty"`
}

// GenerateSessionID returns a new session UUID, exactly as the teacher's
// logs.GenerateSessionID does.
func GenerateSessionID() string {
	return uuid.New().String()
}

// SessionDir returns the directory a session's log and metadata live in,
// rooted at buildDir (the gotask target directory for the current run).
func SessionDir(buildDir, sessionID string) string {
	return filepath.Join(buildDir, "logs", "sessions", sessionID)
}

func sessionLogPath(buildDir, sessionID string) string {
	return filepath.Join(SessionDir(buildDir, sessionID), "task.log")
}

func sessionMetadataPath(buildDir, sessionID string) string {
	return filepath.Join(SessionDir(buildDir, sessionID), "metadata.json")
}

func latestLinkPath(buildDir, taskName string) string {
	return filepath.Join(buildDir, "logs", "latest", taskName)
}

// Session is an open per-task log capture.
type Session struct {
	buildDir string
	id       string
	taskName string
	meta     SessionMetadata
	file     *os.File
}

// StartSession creates the session directory, opens its log file, and writes
// initial metadata. Failure to set up logging is never fatal to the task run
// itself (spec.md §7's best-effort policy for ops tooling around the
// executor) — callers should log a Warnf and proceed with a nil *Session.
func StartSession(buildDir, taskName string) (*Session, error) {
	id := GenerateSessionID()
	dir := SessionDir(buildDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(sessionLogPath(buildDir, id), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	s := &Session{
		buildDir: buildDir,
		id:       id,
		taskName: taskName,
		meta: SessionMetadata{
			SessionID: id,
			TaskName:  taskName,
			StartTime: time.Now(),
		},
		file: f,
	}
	if err := s.writeMeta(); err != nil {
		f.Close()
		return nil, err
	}
	if err := s.relink(); err != nil {
		Warnf("failed to update latest session link for %s: %v", taskName, err)
	}
	return s, nil
}

// ID returns the session's UUID.
func (s *Session) ID() string { return s.id }

// Writer returns the open log file so callers can wire it as a child
// process's stdout/stderr.
func (s *Session) Writer() *os.File { return s.file }

// Finish records the exit code and closes the log file.
func (s *Session) Finish(exitCode int) error {
	end := time.Now()
	ok := exitCode == 0
	s.meta.EndTime = &end
	s.meta.ExitCode = &exitCode
	s.meta.Success = &ok
	if err := s.writeMeta(); err != nil {
		Warnf("failed to finalize session metadata: %v", err)
	}
	return s.file.Close()
}

func (s *Session) writeMeta() error {
	data, err := json.MarshalIndent(s.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session metadata: %w", err)
	}
	return os.WriteFile(sessionMetadataPath(s.buildDir, s.id), data, 0o644)
}

func (s *Session) relink() error {
	latestDir := filepath.Dir(latestLinkPath(s.buildDir, s.taskName))
	if err := os.MkdirAll(latestDir, 0o755); err != nil {
		return err
	}
	link := latestLinkPath(s.buildDir, s.taskName)
	if _, err := os.Lstat(link); err == nil {
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	target := filepath.Join("..", "sessions", s.id)
	return os.Symlink(target, link)
}

// EnsureGitignore writes a catch-all .gitignore into buildDir the first time
// it is created, the same pattern as the teacher's logs.Setup.
func EnsureGitignore(buildDir string) error {
	path := filepath.Join(buildDir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte("*\n!.gitignore\n"), 0o644)
}
