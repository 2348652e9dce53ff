package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
	"expense-manager/internal/repository"
)

// TagService управляет категориями и сервисами транзакций
type TagService struct {
	store      Transactor
	categories CategoryStore
	services   ServiceStore
	now        Clock
	logger     *logrus.Logger
}

func NewTagService(store Transactor, categories CategoryStore, services ServiceStore, now Clock, logger *logrus.Logger) *TagService {
	return &TagService{
		store:      store,
		categories: categories,
		services:   services,
		now:        now,
		logger:     logger,
	}
}

// SeedCategories создает набор категорий по умолчанию для нового пользователя
func (s *TagService) SeedCategories(ctx context.Context, q repository.Querier, userID uuid.UUID) error {
	for _, def := range model.DefaultCategories {
		c := &model.TransactionCategory{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      def.Name,
			Icon:      def.Icon,
			Color:     def.Color,
			CreatedAt: s.now(),
		}
		if err := s.categories.Create(ctx, q, c); err != nil {
			return apperr.Internal("Failed to seed categories", err)
		}
	}
	s.logger.WithField("user_id", userID).Debugf("Создано %d категорий по умолчанию", len(model.DefaultCategories))
	return nil
}

func (s *TagService) ListCategories(ctx context.Context, userID uuid.UUID) ([]model.TransactionCategory, error) {
	categories, err := s.categories.ListByUser(ctx, s.store.Conn(), userID)
	if err != nil {
		return nil, apperr.Internal("Failed to list categories", err)
	}
	if categories == nil {
		categories = []model.TransactionCategory{}
	}
	return categories, nil
}

func (s *TagService) CreateCategory(ctx context.Context, userID uuid.UUID, req model.TagRequest) (*model.TransactionCategory, error) {
	c := &model.TransactionCategory{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		CreatedAt: s.now(),
	}
	if err := s.categories.Create(ctx, s.store.Conn(), c); err != nil {
		return nil, tagWriteError(err, apperr.ErrCategoryExists, apperr.ErrCategoryNotFound)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "category": c.Name}).Info("Категория создана")
	return c, nil
}

func (s *TagService) UpdateCategory(ctx context.Context, userID, id uuid.UUID, req model.TagRequest) (*model.TransactionCategory, error) {
	q := s.store.Conn()
	c, err := s.categories.GetByIDForUser(ctx, q, id, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrCategoryNotFound)
	}
	c.Name, c.Icon, c.Color = req.Name, req.Icon, req.Color
	if err := s.categories.Update(ctx, q, c); err != nil {
		return nil, tagWriteError(err, apperr.ErrCategoryExists, apperr.ErrCategoryNotFound)
	}
	return c, nil
}

func (s *TagService) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.categories.Delete(ctx, s.store.Conn(), id, userID); err != nil {
		return notFound(err, apperr.ErrCategoryNotFound)
	}
	s.logger.WithField("category_id", id).Info("Категория удалена")
	return nil
}

func (s *TagService) ListServices(ctx context.Context, userID uuid.UUID) ([]model.TransactionService, error) {
	services, err := s.services.ListVisible(ctx, s.store.Conn(), userID)
	if err != nil {
		return nil, apperr.Internal("Failed to list services", err)
	}
	if services == nil {
		services = []model.TransactionService{}
	}
	return services, nil
}

func (s *TagService) CreateService(ctx context.Context, userID uuid.UUID, req model.TagRequest) (*model.TransactionService, error) {
	owner := userID
	svc := &model.TransactionService{
		ID:          uuid.New(),
		UserID:      &owner,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		CreatedAt:   s.now(),
	}
	if err := s.services.Create(ctx, s.store.Conn(), svc); err != nil {
		return nil, tagWriteError(err, apperr.ErrServiceExists, apperr.ErrServiceNotFound)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "service": svc.Name}).Info("Сервис создан")
	return svc, nil
}

// UpdateService изменяет только собственный сервис пользователя; глобальные
// сервисы доступны лишь для чтения.
func (s *TagService) UpdateService(ctx context.Context, userID, id uuid.UUID, req model.TagRequest) (*model.TransactionService, error) {
	q := s.store.Conn()
	svc, err := s.services.GetVisible(ctx, q, id, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrServiceNotFound)
	}
	if svc.UserID == nil {
		return nil, apperr.ErrServiceNotFound
	}
	svc.Name, svc.Description, svc.Icon, svc.Color = req.Name, req.Description, req.Icon, req.Color
	if err := s.services.Update(ctx, q, svc); err != nil {
		return nil, tagWriteError(err, apperr.ErrServiceExists, apperr.ErrServiceNotFound)
	}
	return svc, nil
}

func (s *TagService) DeleteService(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.services.Delete(ctx, s.store.Conn(), id, userID); err != nil {
		return notFound(err, apperr.ErrServiceNotFound)
	}
	s.logger.WithField("service_id", id).Info("Сервис удален")
	return nil
}

func tagWriteError(err error, exists, missing *apperr.Error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return exists.Wrap(err)
	case errors.Is(err, repository.ErrNotFound):
		return missing.Wrap(err)
	}
	return apperr.Internal("Internal server error", err)
}
