package pipeline

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"weather-pipeline/models"
)

// TransformRawToClean is the checkpoint name of the raw-to-clean transform,
// the only checkpointed stage.
const TransformRawToClean = "raw_to_clean"

// checkpointEpoch is the beginning-of-time sentinel used before any
// successful run exists for a transformation.
var checkpointEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// EffectiveCheckpoint returns the high-water-mark of the most recent
// successful run entry for name, or the beginning-of-time sentinel when the
// transformation has never succeeded. The log is the authoritative read
// model; nothing is cached in memory.
func EffectiveCheckpoint(db *gorm.DB, name string) (time.Time, error) {
	var entry models.TransformationLog
	err := db.Where("name = ? AND status = ?", name, models.StatusSuccess).
		Order("run_at DESC, id DESC").
		First(&entry).Error
	if err == nil {
		return entry.HighWaterMark, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return checkpointEpoch, nil
	}
	return time.Time{}, fmt.Errorf("read checkpoint %s: %w", name, err)
}

// AppendCheckpoint durably appends one run entry. Entries are append-only:
// existing rows are never updated or deleted, so failed attempts stay
// visible to operators. Safe to call from a failure path.
func AppendCheckpoint(db *gorm.DB, name string, highWaterMark time.Time, recordsProcessed int, status string) error {
	entry := models.TransformationLog{
		Name:             name,
		HighWaterMark:    highWaterMark,
		RunAt:            time.Now().UTC(),
		RecordsProcessed: recordsProcessed,
		Status:           status,
	}
	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("append checkpoint %s: %w", name, err)
	}
	return nil
}
