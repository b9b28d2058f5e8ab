package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillRoadmapJSONArrays = "2024-06-01_backfill_roadmap_json_arrays"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillRoadmapJSONArrays, apply: backfillRoadmapJSONArrays},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows written before the list columns existed hold NULL; readers expect arrays.
var roadmapJSONArrayColumns = map[string][]string{
	"roadmap_chapters": {"prerequisites", "learning_objectives"},
	"lessons":          {"prerequisites", "learning_objectives", "resources"},
	"roadmap_labs":     {"hints", "resources"},
	"roadmap_problems": {"test_cases", "hints"},
}

func backfillRoadmapJSONArrays(db *gorm.DB) error {
	for _, table := range []string{"roadmap_chapters", "lessons", "roadmap_labs", "roadmap_problems"} {
		for _, column := range roadmapJSONArrayColumns[table] {
			err := db.Table(table).Where(column+" IS NULL").Update(column, "[]").Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}
