package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seikatsu-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExportStore receives finished exports; *utils.ObjectStore satisfies it
type ExportStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// ExportService bundles everything a user owns into one JSON document
type ExportService struct {
	DB    *gorm.DB
	Store ExportStore // nil = return the document inline
	Log   logrus.FieldLogger
	now   func() time.Time
}

func NewExportService(db *gorm.DB, store ExportStore, log logrus.FieldLogger) *ExportService {
	return &ExportService{DB: db, Store: store, Log: log.WithField("component", "export"), now: func() time.Time { return time.Now().UTC() }}
}

type UserExport struct {
	ExportedAt time.Time              `json:"exported_at"`
	User       *models.User           `json:"user"`
	Progress   LevelProgress          `json:"progress"`
	Categories []models.CategoryLevel `json:"categories"`
	Journals   []models.Journal       `json:"journals"`
	Tasks      []models.Task          `json:"tasks"`
	Purchases  []models.Purchase      `json:"purchases"`
}

type ExportResult struct {
	URL    string      `json:"url,omitempty"`
	Key    string      `json:"key,omitempty"`
	Bytes  int         `json:"bytes"`
	Export *UserExport `json:"export,omitempty"`
}

func (s *ExportService) Build(ctx context.Context, userID uint) (*UserExport, error) {
	db := s.DB.WithContext(ctx)
	out := &UserExport{ExportedAt: s.now()}

	var u models.User
	if err := db.Preload("Stats").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, persist("export user", err)
	}
	out.User = &u
	if u.Stats != nil {
		out.Progress = CalculateLevelProgress(u.Stats.TotalXP)
	} else {
		out.Progress = CalculateLevelProgress(0)
	}

	if err := db.Preload("Category").Where("user_id = ?", userID).Order("category_id ASC").Find(&out.Categories).Error; err != nil {
		return nil, persist("export categories", err)
	}
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out.Journals).Error; err != nil {
		return nil, persist("export journals", err)
	}
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out.Tasks).Error; err != nil {
		return nil, persist("export tasks", err)
	}
	if err := db.Preload("Item").Where("user_id = ?", userID).Order("purchased_at ASC").Find(&out.Purchases).Error; err != nil {
		return nil, persist("export purchases", err)
	}
	return out, nil
}

// Export builds the document and uploads it when a store is configured
func (s *ExportService) Export(ctx context.Context, userID uint) (*ExportResult, error) {
	doc, err := s.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	if s.Store == nil {
		return &ExportResult{Bytes: len(body), Export: doc}, nil
	}

	key := fmt.Sprintf("exports/%d/%s.json", userID, doc.ExportedAt.Format("20060102T150405Z"))
	url, err := s.Store.Put(ctx, key, "application/json", body)
	if err != nil {
		return nil, persist("upload export", err)
	}
	s.Log.WithFields(logrus.Fields{"user_id": userID, "key": key, "bytes": len(body)}).Info("📦 export uploaded")
	return &ExportResult{URL: url, Key: key, Bytes: len(body)}, nil
}
