package database

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"catsgallery/structs"
)

func InsertFetchLog(entry structs.FetchLog) (int, error) {
	catIDs, err := jsoniter.Marshal(entry.CatIDs)
	if err != nil {
		return 0, err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	result, err := db.Exec(`
		INSERT INTO fetch_log(session_id,generation,status_code,count,committed,error,duration_ms,cat_ids,created_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, entry.SessionID, entry.Generation, entry.StatusCode, entry.Count, entry.Committed, entry.Error,
		entry.DurationMs, string(catIDs), entry.CreatedAt.UnixMilli())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// GetRecentFetchLogs returns up to limit entries, newest first.
func GetRecentFetchLogs(limit int) ([]structs.FetchLog, error) {
	rows, err := db.Query(`
		SELECT id,session_id,generation,status_code,count,committed,error,duration_ms,cat_ids,created_at
		FROM fetch_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []structs.FetchLog{}
	for rows.Next() {
		var entry structs.FetchLog
		var catIDs string
		var createdAt int64
		err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Generation, &entry.StatusCode, &entry.Count,
			&entry.Committed, &entry.Error, &entry.DurationMs, &catIDs, &createdAt)
		if err != nil {
			return nil, err
		}
		if err := jsoniter.UnmarshalFromString(catIDs, &entry.CatIDs); err != nil {
			return nil, err
		}
		entry.CreatedAt = time.UnixMilli(createdAt)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func CountFetchLogs() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM fetch_log").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func DeleteFetchLogsBefore(t time.Time) (int64, error) {
	result, err := db.Exec("DELETE FROM fetch_log WHERE created_at < ?", t.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RunPruner removes entries older than retention on every tick until ctx is
// done. A non-positive interval disables pruning.
func RunPruner(ctx context.Context, interval time.Duration, retention time.Duration) {
	if interval <= 0 {
		log.Warn().Dur("interval", interval).Msg("Fetch log pruning disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := DeleteFetchLogsBefore(now.Add(-retention))
			if err != nil {
				log.Error().Err(err).Msg("Pruning fetch log failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("count", n).Msg("Pruned fetch log")
			}
		}
	}
}
