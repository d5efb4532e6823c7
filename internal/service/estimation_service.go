package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vbonduro/dishcarbon/internal/api"
	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
	"github.com/vbonduro/dishcarbon/internal/photostore"
	"github.com/vbonduro/dishcarbon/internal/store"
)

var (
	ErrEmptyDish       = errors.New("dish name is required")
	ErrHistoryDisabled = errors.New("history is not configured")
	ErrEntryNotFound   = errors.New("history entry not found")
)

// estimator is the subset of api.Client that EstimationService requires.
type estimator interface {
	Health(ctx context.Context) (*api.HealthStatus, error)
	EstimateDish(ctx context.Context, dish string) (*domain.EstimationResult, error)
	EstimateImage(ctx context.Context, img domain.ImageUpload) (*domain.EstimationResult, error)
}

// historyRepository is the subset of store.EstimationStore that EstimationService requires.
type historyRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.HistoryEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.HistoryEntry, error)
	Delete(ctx context.Context, id int64) error
}

type EstimationService struct {
	api     estimator
	history historyRepository
	photos  photostore.PhotoStore
	logger  *slog.Logger
}

// NewEstimationService wires the backend client with optional history and
// photo storage. A nil history disables recording; a nil photo store skips
// keeping uploaded images.
func NewEstimationService(
	apiClient estimator,
	history historyRepository,
	photos photostore.PhotoStore,
	logger *slog.Logger,
) *EstimationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimationService{
		api:     apiClient,
		history: history,
		photos:  photos,
		logger:  logger,
	}
}

func (s *EstimationService) Health(ctx context.Context) (*api.HealthStatus, error) {
	return s.api.Health(ctx)
}

// EstimateDish asks the backend for the footprint of a named dish.
func (s *EstimationService) EstimateDish(ctx context.Context, sessionID, dish string) (*domain.EstimationResult, error) {
	dish = strings.TrimSpace(dish)
	if dish == "" {
		return nil, ErrEmptyDish
	}

	s.logger.Info("text estimation started", "session_id", sessionID, "dish", dish)
	result, err := s.api.EstimateDish(ctx, dish)
	if err != nil {
		return nil, err
	}

	s.record(ctx, &domain.HistoryEntry{
		SessionID: sessionID,
		Method:    domain.MethodText,
		Query:     dish,
	}, result)
	return result, nil
}

// EstimateImage validates the upload, asks the backend for the footprint of
// the pictured dish and keeps the photo next to the history entry.
func (s *EstimationService) EstimateImage(ctx context.Context, sessionID string, img domain.ImageUpload) (*domain.EstimationResult, error) {
	if err := estimation.ValidateImage(img.MimeType, img.Size()); err != nil {
		return nil, err
	}

	s.logger.Info("image estimation started", "session_id", sessionID, "filename", img.Filename, "mime_type", img.MimeType, "bytes", img.Size())
	result, err := s.api.EstimateImage(ctx, img)
	if err != nil {
		return nil, err
	}

	entry := &domain.HistoryEntry{
		SessionID: sessionID,
		Method:    domain.MethodImage,
		Query:     img.Filename,
	}
	if s.photos != nil && s.history != nil {
		key, err := s.photos.Save(ctx, "session_"+sessionID, img.MimeType, bytes.NewReader(img.Data))
		if err != nil {
			s.logger.Error("failed to save photo", "session_id", sessionID, "error", err)
		} else {
			entry.PhotoKey = key
		}
	}

	s.record(ctx, entry, result)
	return result, nil
}

// record stores a successful estimation. Failures are logged only: history
// is a side record and never changes what the user sees.
func (s *EstimationService) record(ctx context.Context, entry *domain.HistoryEntry, result *domain.EstimationResult) {
	if s.history == nil || result == nil {
		return
	}
	entry.Dish = result.Dish
	entry.EstimatedCarbonKg = result.EstimatedCarbonKg
	entry.Ingredients = result.Ingredients

	saved, err := s.history.Create(ctx, entry)
	if err != nil {
		s.logger.Error("failed to record estimation", "session_id", entry.SessionID, "method", entry.Method, "error", err)
		if entry.PhotoKey != "" {
			if derr := s.photos.Delete(ctx, entry.PhotoKey); derr != nil {
				s.logger.Error("failed to remove orphaned photo", "storage_key", entry.PhotoKey, "error", derr)
			}
		}
		return
	}
	s.logger.Debug("estimation recorded", "id", saved.ID, "method", saved.Method, "dish", saved.Dish)
}

// History lists recent estimations, restricted to one session when
// sessionID is not empty.
func (s *EstimationService) History(ctx context.Context, sessionID string, limit int) ([]*domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if sessionID == "" {
		return s.history.ListRecent(ctx, limit)
	}
	return s.history.ListBySession(ctx, sessionID, limit)
}

func (s *EstimationService) HistoryEntry(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.GetByID(ctx, id)
}

// ownedEntry returns the entry only when it belongs to sessionID.
func (s *EstimationService) ownedEntry(ctx context.Context, sessionID string, id int64) (*domain.HistoryEntry, error) {
	entry, err := s.HistoryEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || sessionID == "" || entry.SessionID != sessionID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// Photo opens the image kept for one of the session's history entries. The
// caller closes the reader. Entries of other sessions report
// photostore.ErrNotFound.
func (s *EstimationService) Photo(ctx context.Context, sessionID string, id int64) (io.ReadCloser, string, error) {
	entry, err := s.ownedEntry(ctx, sessionID, id)
	if errors.Is(err, ErrEntryNotFound) {
		return nil, "", photostore.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get estimation: %w", err)
	}
	if entry.PhotoKey == "" || s.photos == nil {
		return nil, "", photostore.ErrNotFound
	}
	return s.photos.Get(ctx, entry.PhotoKey)
}

// DeleteEntry removes one of the session's history entries and its photo.
func (s *EstimationService) DeleteEntry(ctx context.Context, sessionID string, id int64) error {
	entry, err := s.ownedEntry(ctx, sessionID, id)
	if err != nil {
		return err
	}
	if err := s.history.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to delete estimation: %w", err)
	}
	if entry.PhotoKey != "" && s.photos != nil {
		if err := s.photos.Delete(ctx, entry.PhotoKey); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("failed to delete photo", "estimation_id", id, "storage_key", entry.PhotoKey, "error", err)
		}
	}
	s.logger.Info("history entry deleted", "session_id", sessionID, "estimation_id", id)
	return nil
}
