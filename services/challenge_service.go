// file: services/challenge_service.go
package services

import (
	"DaliCTF/dto"
	"DaliCTF/mappers"
	"DaliCTF/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ChallengeService 题目的增改查，类型相关的校验与渲染交给 TypeRegistry
type ChallengeService struct {
	deps Deps
}

func NewChallengeService(deps Deps) *ChallengeService {
	return &ChallengeService{deps: deps.withDefaults()}
}

func (s *ChallengeService) validate(ch *models.Challenge) (ChallengeType, error) {
	if ch.ChallengeName == "" || ch.Author == "" || ch.Description == "" {
		return nil, fmt.Errorf("%w: challenge_name, author and description are required", ErrInvalidChallenge)
	}
	if ch.State != models.ChallengeStateVisible && ch.State != models.ChallengeStateHidden {
		return nil, fmt.Errorf("%w: state must be visible or hidden", ErrInvalidChallenge)
	}
	typ, err := s.deps.Types.Get(ch.Type)
	if err != nil {
		return nil, err
	}
	if len(ch.Flags) == 0 {
		return nil, fmt.Errorf("%w: at least one flag is required", ErrInvalidChallenge)
	}
	for _, f := range ch.Flags {
		if strings.TrimSpace(f.Content) == "" {
			return nil, fmt.Errorf("%w: flag content is empty", ErrInvalidChallenge)
		}
		// 注册表里能正常比较一次即视为合法（未知类型、正则编译失败都会报错）
		if _, err := s.deps.Flags.Compare(f, ""); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidChallenge, err)
		}
	}
	if err := typ.Prepare(ch); err != nil {
		return nil, err
	}
	return typ, nil
}

func (s *ChallengeService) Create(ctx context.Context, req dto.CreateChallengeReq) (*models.Challenge, error) {
	req.Normalize()
	ch := mappers.MapCreateReqToModel(req)
	if _, err := s.validate(&ch); err != nil {
		return nil, err
	}
	if err := s.deps.DB.WithContext(ctx).Create(&ch).Error; err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	invalidateAll(ctx, s.deps.Cache, s.deps.Logger)
	s.deps.Logger.Info("challenge created", "challenge_id", ch.ID, "type", ch.Type)
	return &ch, nil
}

// Update 修改题目。修改 expiry 不会撤销已经补判的解题
func (s *ChallengeService) Update(ctx context.Context, id uint32, req dto.UpdateChallengeReq) (*models.Challenge, error) {
	var ch models.Challenge
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Flags").First(&ch, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}
		applyUpdate(&ch, req)
		if _, err := s.validate(&ch); err != nil {
			return err
		}

		if err := tx.Model(&ch).Select(
			"ChallengeName", "Category", "Description", "Hint", "State",
			"Initial", "Minimum", "Decay", "Function", "Value", "Expiry",
		).Updates(&ch).Error; err != nil {
			return err
		}
		if req.Flags == nil {
			return nil
		}
		// Flag 整体替换，补判总是使用最新的 Flag
		if err := tx.Where("challenge_id = ?", ch.ID).Delete(&models.Flag{}).Error; err != nil {
			return err
		}
		for i := range ch.Flags {
			ch.Flags[i].ID = 0
			ch.Flags[i].ChallengeID = ch.ID
		}
		return tx.Create(&ch.Flags).Error
	})
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) || errors.Is(err, ErrInvalidChallenge) || errors.Is(err, ErrUnknownChallengeType) {
			return nil, err
		}
		return nil, fmt.Errorf("update challenge %d: %w", id, err)
	}
	invalidateAll(ctx, s.deps.Cache, s.deps.Logger)
	return &ch, nil
}

func applyUpdate(ch *models.Challenge, req dto.UpdateChallengeReq) {
	if req.ChallengeName != nil {
		ch.ChallengeName = strings.TrimSpace(*req.ChallengeName)
	}
	if req.Category != nil {
		ch.Category = *req.Category
	}
	if req.Description != nil {
		ch.Description = strings.TrimSpace(*req.Description)
	}
	if req.Hint != nil {
		ch.Hint = *req.Hint
	}
	if req.State != nil {
		ch.State = models.ChallengeState(strings.ToLower(strings.TrimSpace(*req.State)))
	}
	if req.Initial != nil {
		ch.Initial = *req.Initial
	}
	if req.Minimum != nil {
		ch.Minimum = *req.Minimum
	}
	if req.Decay != nil {
		ch.Decay = *req.Decay
	}
	if req.Function != nil {
		ch.Function = strings.ToLower(strings.TrimSpace(*req.Function))
	}
	if req.Expiry != nil {
		expiry := *req.Expiry
		ch.Expiry = &expiry
	}
	if req.Flags != nil {
		reqs := *req.Flags
		for i := range reqs {
			reqs[i].Type = strings.ToLower(strings.TrimSpace(reqs[i].Type))
			if reqs[i].Type == "" {
				reqs[i].Type = models.FlagTypeStatic
			}
		}
		ch.Flags = mappers.MapFlagReqs(reqs)
	}
}

func (s *ChallengeService) find(ctx context.Context, id uint32) (*models.Challenge, ChallengeType, error) {
	var ch models.Challenge
	if err := s.deps.DB.WithContext(ctx).Preload("Flags").First(&ch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrChallengeNotFound
		}
		return nil, nil, err
	}
	typ, err := s.deps.Types.Get(ch.Type)
	if err != nil {
		return nil, nil, err
	}
	return &ch, typ, nil
}

// Detail 用户视角的题目详情，不含 Flag
func (s *ChallengeService) Detail(ctx context.Context, id uint32) (dto.ChallengeDetailResp, error) {
	ch, typ, err := s.find(ctx, id)
	if err != nil {
		return dto.ChallengeDetailResp{}, err
	}
	if ch.State != models.ChallengeStateVisible {
		return dto.ChallengeDetailResp{}, ErrChallengeHidden
	}
	return typ.Read(ch, s.deps.Now()), nil
}

func (s *ChallengeService) AdminDetail(ctx context.Context, id uint32) (dto.AdminChallengeDetailResp, error) {
	ch, typ, err := s.find(ctx, id)
	if err != nil {
		return dto.AdminChallengeDetailResp{}, err
	}
	return mappers.MapModelToAdminDetailResp(typ.Read(ch, s.deps.Now()), *ch), nil
}

// List 可见题目列表
func (s *ChallengeService) List(ctx context.Context) ([]dto.ChallengeItemResp, error) {
	var challenges []models.Challenge
	if err := s.deps.DB.WithContext(ctx).
		Where("state = ?", models.ChallengeStateVisible).
		Order("id").
		Find(&challenges).Error; err != nil {
		return nil, err
	}
	items := make([]dto.ChallengeItemResp, 0, len(challenges))
	for _, ch := range challenges {
		items = append(items, mappers.MapModelToItemResp(ch))
	}
	return items, nil
}
