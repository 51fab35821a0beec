package service

import (
	"errors"
	"time"

	"github.com/qs3c/novel_go_server/internal/model"
	"github.com/qs3c/novel_go_server/internal/model/dto"
	"github.com/qs3c/novel_go_server/internal/repository"
)

type ProjectStyleService struct {
	projectRepo      *repository.ProjectRepository
	styleRepo        *repository.WritingStyleRepository
	defaultStyleRepo *repository.ProjectDefaultStyleRepository
}

func NewProjectStyleService(
	projectRepo *repository.ProjectRepository,
	styleRepo *repository.WritingStyleRepository,
	defaultStyleRepo *repository.ProjectDefaultStyleRepository,
) *ProjectStyleService {
	return &ProjectStyleService{
		projectRepo:      projectRepo,
		styleRepo:        styleRepo,
		defaultStyleRepo: defaultStyleRepo,
	}
}

// GetDefault 获取项目默认风格
func (s *ProjectStyleService) GetDefault(userID, projectID string) (*dto.DefaultStyleDetail, error) {
	if err := s.checkOwner(userID, projectID); err != nil {
		return nil, err
	}

	pds, err := s.defaultStyleRepo.GetByProjectID(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefaultStyleNotSet
		}
		return nil, err
	}
	return buildDefaultStyleDetail(pds), nil
}

// SetDefault 选择默认风格，首次创建，之后替换
func (s *ProjectStyleService) SetDefault(userID, projectID string, styleID int64) (*dto.DefaultStyleDetail, error) {
	if err := s.checkOwner(userID, projectID); err != nil {
		return nil, err
	}

	style, err := s.styleRepo.GetByID(styleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStyleNotFound
		}
		return nil, err
	}
	// 其他项目的私有风格不可选
	if !style.IsAvailableTo(projectID) {
		return nil, ErrStyleNotFound
	}

	pds, err := s.defaultStyleRepo.Upsert(projectID, styleID)
	if err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, ErrStyleNotFound
		}
		return nil, err
	}
	return buildDefaultStyleDetail(pds), nil
}

// ClearDefault 取消默认风格
func (s *ProjectStyleService) ClearDefault(userID, projectID string) error {
	if err := s.checkOwner(userID, projectID); err != nil {
		return err
	}

	if err := s.defaultStyleRepo.DeleteByProjectID(projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDefaultStyleNotSet
		}
		return err
	}
	return nil
}

// ListStyles 列出项目可选风格（全局预设 + 项目私有），标记当前默认
func (s *ProjectStyleService) ListStyles(userID, projectID string) ([]*dto.StyleOption, error) {
	if err := s.checkOwner(userID, projectID); err != nil {
		return nil, err
	}

	styles, err := s.styleRepo.ListAvailable(projectID)
	if err != nil {
		return nil, err
	}

	var defaultID int64
	pds, err := s.defaultStyleRepo.GetByProjectID(projectID)
	switch {
	case err == nil:
		defaultID = pds.StyleID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	items := make([]*dto.StyleOption, len(styles))
	for i, style := range styles {
		items[i] = &dto.StyleOption{
			ID:          style.ID,
			Name:        style.Name,
			StyleType:   style.StyleType,
			Description: style.Description,
			IsDefault:   style.ID == defaultID,
		}
	}
	return items, nil
}

func (s *ProjectStyleService) checkOwner(userID, projectID string) error {
	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if project.UserID != userID {
		return ErrPermissionDenied
	}
	return nil
}

func buildDefaultStyleDetail(pds *model.ProjectDefaultStyle) *dto.DefaultStyleDetail {
	detail := &dto.DefaultStyleDetail{
		ProjectID: pds.ProjectID,
		StyleID:   pds.StyleID,
		CreatedAt: pds.CreatedAt.Format(time.RFC3339),
		UpdatedAt: pds.UpdatedAt.Format(time.RFC3339),
	}
	if pds.Style != nil {
		detail.StyleName = pds.Style.Name
		detail.StyleType = pds.Style.StyleType
		detail.Description = pds.Style.Description
	}
	return detail
}
