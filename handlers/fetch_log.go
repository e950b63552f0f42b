package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"catsgallery/catapi"
	"catsgallery/database"
	"catsgallery/gallery"
	"catsgallery/metrics"
	"catsgallery/structs"
)

const (
	defaultFetchLogLimit = 20
	maxFetchLogLimit     = 100
)

// RecordFetch stores every fetch in the fetch log and feeds it to m, which
// may be nil.
func RecordFetch(m *metrics.Metrics) gallery.SessionObserver {
	return func(sessionID string, record gallery.FetchRecord) {
		if m != nil {
			m.ObserveFetch(record)
		}

		entry := structs.FetchLog{
			SessionID:  sessionID,
			Generation: record.Generation,
			StatusCode: catapi.StatusCode(record.Err),
			Count:      len(record.Cats),
			Committed:  record.Committed,
			DurationMs: record.Duration.Milliseconds(),
			CatIDs:     make([]structs.CatID, 0, len(record.Cats)),
		}
		if record.Err != nil {
			entry.Error = record.Err.Error()
		}
		for _, cat := range record.Cats {
			entry.CatIDs = append(entry.CatIDs, cat.ID)
		}

		if _, err := database.InsertFetchLog(entry); err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("Failed to write fetch log")
		}
	}
}

func getFetchLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", defaultFetchLogLimit)
	if limit <= 0 {
		limit = defaultFetchLogLimit
	}
	if limit > maxFetchLogLimit {
		limit = maxFetchLogLimit
	}

	logs, err := database.GetRecentFetchLogs(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read fetch log")
		return sendCommonResponse(ctx, fiber.StatusInternalServerError, "Failed to read fetch log", nil)
	}
	total, err := database.CountFetchLogs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to count fetch log")
		return sendCommonResponse(ctx, fiber.StatusInternalServerError, "Failed to read fetch log", nil)
	}
	return sendCommonResponse(ctx, fiber.StatusOK, "OK", map[string]interface{}{
		"fetches": logs,
		"limit":   limit,
		"total":   total,
	})
}
