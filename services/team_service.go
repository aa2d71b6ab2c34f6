// file: services/team_service.go
package services

import (
	"DaliCTF/models"
	"DaliCTF/utils"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// TeamService 队伍决定提交者身份中的 team_id
type TeamService struct {
	deps Deps
}

func NewTeamService(deps Deps) *TeamService {
	return &TeamService{deps: deps.withDefaults()}
}

func (s *TeamService) Create(ctx context.Context, leaderID uint32, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("team name is required")
	}
	team := models.Team{
		TeamName:       name,
		LeaderID:       leaderID,
		InvitationCode: utils.GenerateInvitationCode(12),
		TeamStatus:     models.TeamStatusActive,
	}
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoTeam(tx, leaderID); err != nil {
			return err
		}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{
			TeamID:   team.ID,
			UserID:   leaderID,
			Role:     models.TeamRoleLeader,
			JoinedAt: s.deps.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamService) Join(ctx context.Context, userID uint32, code string) (*models.Team, error) {
	var team models.Team
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invitation_code = ?", strings.TrimSpace(code)).First(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationCode
			}
			return err
		}
		if team.TeamStatus == models.TeamStatusBanned {
			return fmt.Errorf("team %d is banned", team.ID)
		}
		if err := ensureNoTeam(tx, userID); err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			Role:     models.TeamRoleMember,
			JoinedAt: s.deps.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func ensureNoTeam(tx *gorm.DB, userID uint32) error {
	var count int64
	if err := tx.Model(&models.TeamMember{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyInTeam
	}
	return nil
}
