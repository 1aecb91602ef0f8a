// Package archive persists finished production jobs to a local sqlite
// database so past runs survive restarts and feed the control API.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"auto-video-pipeline/types"
)

// Record is one archived job row.
type Record struct {
	JobID      string    `json:"job_id"`
	Channel    string    `json:"channel"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Step       string    `json:"step"`
	VideoPath  string    `json:"video_path,omitempty"`
	Feedback   float64   `json:"feedback_score,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_id      TEXT PRIMARY KEY,
		channel     TEXT NOT NULL,
		kind        TEXT NOT NULL,
		status      TEXT NOT NULL,
		step        TEXT NOT NULL,
		video_path  TEXT,
		feedback    REAL,
		error       TEXT,
		payload     TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		archived_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_archived_at ON jobs(archived_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Archive upserts a terminal job. The full job is stored as JSON next to
// the queryable columns.
func (s *Store) Archive(job *types.ProductionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("archive: marshal job %s: %w", job.ID, err)
	}

	videoPath := ""
	if job.Rendered != nil {
		videoPath = job.Rendered.Path
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs (job_id, channel, kind, status, step, video_path, feedback, error, payload, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			step = excluded.step,
			video_path = excluded.video_path,
			feedback = excluded.feedback,
			error = excluded.error,
			payload = excluded.payload,
			archived_at = excluded.archived_at`,
		job.ID, job.Channel.Name, string(job.Kind), string(job.Status), job.Step.String(),
		videoPath, job.FeedbackScore, job.Error, string(payload), job.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("archive: insert job %s: %w", job.ID, err)
	}
	return nil
}

// ListRecent returns up to limit archived jobs, newest first.
func (s *Store) ListRecent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT job_id, channel, kind, status, step, video_path, feedback, error, created_at, archived_at
		FROM jobs ORDER BY archived_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var videoPath, errText sql.NullString
		var feedback sql.NullFloat64
		if err := rows.Scan(&r.JobID, &r.Channel, &r.Kind, &r.Status, &r.Step,
			&videoPath, &feedback, &errText, &r.CreatedAt, &r.ArchivedAt); err != nil {
			return nil, fmt.Errorf("archive: scan: %w", err)
		}
		r.VideoPath = videoPath.String
		r.Feedback = feedback.Float64
		r.Error = errText.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
