package storage

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RecordDurations are the best-effort durations tracked by default.
var RecordDurations = []int{1, 5, 15, 30, 60, 300, 600, 1200}

type PowerRecord struct {
	Duration int       `json:"duration" gorm:"primaryKey"`
	Watts    int       `json:"watts"`
	Wkg      float64   `json:"wkg"`
	Date     time.Time `json:"date"`
}

type Records struct {
	db  *gorm.DB
	log *slog.Logger
}

// OpenRecords opens (or creates) the SQLite database at path and makes
// sure a row exists for every tracked duration.
func OpenRecords(path string, log *slog.Logger) (*Records, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open records db: %w", err)
	}
	if err := db.AutoMigrate(&PowerRecord{}); err != nil {
		return nil, fmt.Errorf("migrate records db: %w", err)
	}

	for _, d := range RecordDurations {
		var count int64
		if err := db.Model(&PowerRecord{}).Where("duration = ?", d).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			if err := db.Create(&PowerRecord{Duration: d, Date: time.Now()}).Error; err != nil {
				return nil, err
			}
		}
	}

	log.Debug("records database ready", "path", path)
	return &Records{db: db, log: log}, nil
}

func (r *Records) All() ([]PowerRecord, error) {
	var recs []PowerRecord
	err := r.db.Order("duration ASC").Find(&recs).Error
	return recs, err
}

// Update stores every duration in best whose watts beat the saved record
// and returns the new records.
func (r *Records) Update(best map[int]float64, mass float64, date time.Time) ([]PowerRecord, error) {
	durations := make([]int, 0, len(best))
	for d := range best {
		durations = append(durations, d)
	}
	sort.Ints(durations)

	var improved []PowerRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, d := range durations {
			watts := int(math.Round(best[d]))

			var old PowerRecord
			res := tx.Where("duration = ?", d).Limit(1).Find(&old)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 && watts <= old.Watts {
				continue
			}

			rec := PowerRecord{Duration: d, Watts: watts, Date: date}
			if mass > 0 {
				rec.Wkg = math.Round(float64(watts)/mass*100) / 100
			}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
			improved = append(improved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range improved {
		r.log.Info("new power record", "duration_s", rec.Duration, "watts", rec.Watts, "wkg", rec.Wkg)
	}
	return improved, nil
}

func (r *Records) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
