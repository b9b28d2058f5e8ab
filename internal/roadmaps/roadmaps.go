package roadmaps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tensorcode/backend/internal/patch"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityRoadmap = "roadmap"

var validLevels = map[string]struct{}{
	"foundation":   {},
	"intermediate": {},
	"advanced":     {},
}

func (s *Service) roadmapSummaries(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("roadmaps AS r").
		Select(selectRoadmapCounts).
		Joins(joinModules).
		Joins(joinChapters).
		Joins(joinLessons).
		Joins(joinLabs).
		Joins(joinProblems).
		Group("r.id")
}

// ListRoadmaps returns every roadmap that is not archived, newest first.
func (s *Service) ListRoadmaps(ctx context.Context) ([]RoadmapSummary, error) {
	summaries := make([]RoadmapSummary, 0)
	err := s.roadmapSummaries(ctx).
		Where("r.status <> ?", StatusArchived).
		Order("r.created_at DESC").
		Order("r.id DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, s.fail("roadmaps.list", "select_failed", err)
	}
	return summaries, nil
}

// GetRoadmap returns the roadmap with its descendant counts.
func (s *Service) GetRoadmap(ctx context.Context, roadmapID string) (RoadmapSummary, error) {
	summaries := make([]RoadmapSummary, 0, 1)
	err := s.roadmapSummaries(ctx).
		Where("r.roadmap_id = ?", roadmapID).
		Order("r.id").
		Limit(1).
		Scan(&summaries).Error
	if err != nil {
		return RoadmapSummary{}, s.fail("roadmaps.get", "select_failed", err, zap.String("roadmap_id", roadmapID))
	}
	if len(summaries) == 0 {
		return RoadmapSummary{}, notFound(entityRoadmap)
	}
	return summaries[0], nil
}

// CreateRoadmap inserts a draft roadmap keyed by the slug of its name.
func (s *Service) CreateRoadmap(ctx context.Context, input RoadmapInput) (Roadmap, error) {
	if err := requireName(input.Name); err != nil {
		return Roadmap{}, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Roadmap{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	level := input.Level
	if level == "" {
		level = "foundation"
	}
	if _, ok := validLevels[level]; !ok {
		return Roadmap{}, fmt.Errorf("%w: level must be one of foundation, intermediate, advanced", ErrValidation)
	}
	if input.EstimatedHours < 0 {
		return Roadmap{}, fmt.Errorf("%w: estimated_hours must be non-negative", ErrValidation)
	}

	roadmapID, err := slugID(input.Name)
	if err != nil {
		return Roadmap{}, err
	}
	if err := s.checkUnique(ctx, &Roadmap{}, Path{}, "roadmap_id", roadmapID, entityRoadmap); err != nil {
		return Roadmap{}, err
	}

	now := s.now()
	roadmap := Roadmap{
		RoadmapID:      roadmapID,
		Name:           strings.TrimSpace(input.Name),
		Title:          title,
		Description:    input.Description,
		Level:          level,
		EstimatedHours: input.EstimatedHours,
		OfficialDocs:   input.OfficialDocs,
		Icon:           input.Icon,
		Version:        "1.0.0",
		Status:         StatusDraft,
		LastUpdated:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.WithContext(ctx).Create(&roadmap).Error; err != nil {
		return Roadmap{}, s.fail("roadmaps.create", "insert_failed", err)
	}
	return roadmap, nil
}

// UpdateRoadmap applies the set fields of changes. The roadmap id never changes.
func (s *Service) UpdateRoadmap(ctx context.Context, roadmapID string, changes RoadmapPatch) (RoadmapSummary, error) {
	if err := s.requireRoadmap(ctx, roadmapID, false); err != nil {
		return RoadmapSummary{}, err
	}
	if changes.Level.Set {
		if _, ok := validLevels[changes.Level.Value]; !ok {
			return RoadmapSummary{}, fmt.Errorf("%w: level must be one of foundation, intermediate, advanced", ErrValidation)
		}
	}
	updates := patch.Updates{"last_updated": s.now()}
	patch.Put(updates, "name", changes.Name)
	patch.Put(updates, "title", changes.Title)
	patch.Put(updates, "description", changes.Description)
	patch.Put(updates, "level", changes.Level)
	patch.Put(updates, "estimated_hours", changes.EstimatedHours)
	patch.Put(updates, "official_docs", changes.OfficialDocs)
	patch.Put(updates, "icon", changes.Icon)
	patch.Put(updates, "version", changes.Version)
	if err := s.updateRow(ctx, &Roadmap{}, Path{}, "roadmap_id", roadmapID, updates); err != nil {
		return RoadmapSummary{}, s.fail("roadmaps.update", "update_failed", err, zap.String("roadmap_id", roadmapID))
	}
	return s.GetRoadmap(ctx, roadmapID)
}

// PublishRoadmap marks the roadmap active.
func (s *Service) PublishRoadmap(ctx context.Context, roadmapID string) (Roadmap, error) {
	return s.setRoadmapStatus(ctx, roadmapID, StatusActive)
}

// ArchiveRoadmap hides the roadmap from listings.
func (s *Service) ArchiveRoadmap(ctx context.Context, roadmapID string) (Roadmap, error) {
	return s.setRoadmapStatus(ctx, roadmapID, StatusArchived)
}

func (s *Service) setRoadmapStatus(ctx context.Context, roadmapID, status string) (Roadmap, error) {
	if err := s.requireRoadmap(ctx, roadmapID, false); err != nil {
		return Roadmap{}, err
	}
	updates := map[string]any{"status": status, "last_updated": s.now()}
	if err := s.updateRow(ctx, &Roadmap{}, Path{}, "roadmap_id", roadmapID, updates); err != nil {
		return Roadmap{}, s.fail("roadmaps.status", "update_failed", err, zap.String("roadmap_id", roadmapID))
	}
	var roadmap Roadmap
	if err := s.db.WithContext(ctx).Where("roadmap_id = ?", roadmapID).Order("id").Take(&roadmap).Error; err != nil {
		return Roadmap{}, s.fail("roadmaps.status", "reload_failed", err, zap.String("roadmap_id", roadmapID))
	}
	return roadmap, nil
}

// DeleteRoadmap removes the roadmap row. Descendants are only removed with cascading enabled.
func (s *Service) DeleteRoadmap(ctx context.Context, roadmapID string) error {
	if err := s.requireRoadmap(ctx, roadmapID, false); err != nil {
		return err
	}
	err := s.deleteRow(ctx, &Roadmap{}, Path{}, "roadmap_id", roadmapID,
		&Problem{}, &Lab{}, &Lesson{}, &Chapter{}, &Module{})
	if err != nil {
		return s.fail("roadmaps.delete", "delete_failed", err, zap.String("roadmap_id", roadmapID))
	}
	return nil
}

// RoadmapExists reports whether a roadmap with roadmapID is stored.
func (s *Service) RoadmapExists(ctx context.Context, roadmapID string) (bool, error) {
	found, err := s.exists(ctx, &Roadmap{}, Path{}, "roadmap_id", roadmapID)
	if err != nil {
		return false, s.fail("roadmaps.exists", "count_failed", err, zap.String("roadmap_id", roadmapID))
	}
	return found, nil
}

func (s *Service) requireRoadmap(ctx context.Context, roadmapID string, asParent bool) error {
	found, err := s.RoadmapExists(ctx, roadmapID)
	if err != nil {
		return err
	}
	if !found {
		if asParent {
			return parentNotFound(entityRoadmap)
		}
		return notFound(entityRoadmap)
	}
	return nil
}

// IsNotFound reports whether err names a missing node.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err rejects caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
