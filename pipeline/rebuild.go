package pipeline

import (
	"fmt"

	"gorm.io/gorm"

	"weather-pipeline/logger"
	"weather-pipeline/models"
)

// RebuildClean deletes every clean record along with the raw_to_clean
// checkpoint history, then reruns the raw-to-clean transform over all raw
// history. This is the only operation that ever deletes clean rows; use it
// when raw data was corrected or the clean layer is suspect.
func (p *Pipeline) RebuildClean() (CleanStats, error) {
	logger.Printf("rebuild: clearing clean layer and raw_to_clean checkpoints")

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.CleanWeatherRecord{}).Error; err != nil {
			return fmt.Errorf("delete clean records: %w", err)
		}
		if err := tx.Where("name = ?", TransformRawToClean).
			Delete(&models.TransformationLog{}).Error; err != nil {
			return fmt.Errorf("delete raw_to_clean checkpoints: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Errorf("rebuild failed: %v", err)
		return CleanStats{}, err
	}

	logger.Printf("rebuild: clean layer cleared, reprocessing from raw")
	return p.RunRawToClean()
}
