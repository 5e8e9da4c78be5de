package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"seikatsu-backend/models"

	"gorm.io/gorm"
)

// JournalService is journal CRUD. Creating an entry goes through ActivityOrchestrator.CreateJournal.
type JournalService struct {
	DB *gorm.DB
}

func NewJournalService(db *gorm.DB) *JournalService {
	return &JournalService{DB: db}
}

// Page is a paginated listing
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func (s *JournalService) List(ctx context.Context, userID uint, page, size int) (*Page[models.Journal], error) {
	page, size = normalizePage(page, size)
	db := s.DB.WithContext(ctx).Model(&models.Journal{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, persist("list journals", err)
	}
	var items []models.Journal
	if err := db.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return nil, persist("list journals", err)
	}
	return &Page[models.Journal]{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *JournalService) Get(ctx context.Context, userID uint, id string) (*models.Journal, error) {
	var j models.Journal
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("journal", id)
	}
	if err != nil {
		return nil, persist("get journal", err)
	}
	return &j, nil
}

// JournalUpdate only touches the fields that are set
type JournalUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Mood    *string `json:"mood"`
}

// Update edits an entry. XP and the creation date (the streak date) never change.
func (s *JournalService) Update(ctx context.Context, userID uint, id string, in JournalUpdate) (*models.Journal, error) {
	j, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		updates["title"] = title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Mood != nil {
		mood := strings.ToLower(strings.TrimSpace(*in.Mood))
		if mood == "" {
			updates["mood"] = nil
		} else {
			updates["mood"] = mood
		}
	}
	if len(updates) == 0 {
		return j, nil
	}

	if err := s.DB.WithContext(ctx).Model(j).Updates(updates).Error; err != nil {
		return nil, persist("update journal", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *JournalService) Delete(ctx context.Context, userID uint, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Journal{})
	if res.Error != nil {
		return persist("delete journal", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("journal", id)
	}
	return nil
}

func (s *JournalService) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Journal{}).Where("user_id = ?", userID).Count(&n).Error
	return n, persist("count journals", err)
}

// Recent returns entries from the last `days` days, newest first
func (s *JournalService) Recent(ctx context.Context, userID uint, days, limit int) ([]models.Journal, error) {
	if days < 1 {
		days = 7
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var items []models.Journal
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, persist("recent journals", err)
}

// MoodDistribution counts entries per mood; entries without one count as "unspecified"
func (s *JournalService) MoodDistribution(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		Mood  *string
		Count int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Journal{}).
		Select("mood, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("mood").
		Scan(&rows).Error
	if err != nil {
		return nil, persist("mood distribution", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := "unspecified"
		if r.Mood != nil && *r.Mood != "" {
			key = *r.Mood
		}
		out[key] += r.Count
	}
	return out, nil
}
