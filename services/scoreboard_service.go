// file: services/scoreboard_service.go
package services

import (
	"DaliCTF/dto"
	"DaliCTF/models"
	"context"
	"fmt"
	"sort"
	"time"
)

const (
	AccountTypeTeam = "team"
	AccountTypeUser = "user"
)

// ScoreboardService 排行榜与解题动态。
// 延迟题目在截止前没有解题记录，因此排行榜天然不包含被隐藏的结果
type ScoreboardService struct {
	deps  Deps
	cache ResponseCache
	ttl   time.Duration
}

func NewScoreboardService(deps Deps, cache ResponseCache, ttl time.Duration) *ScoreboardService {
	if cache == nil {
		cache = NopCache{}
	}
	return &ScoreboardService{deps: deps.withDefaults(), cache: cache, ttl: ttl}
}

type accountKey struct {
	kind string
	id   uint32
}

// Standings 计算排行榜：队伍内多人解出同一题只计一次；同分时最后解题时间早的在前
func (s *ScoreboardService) Standings(ctx context.Context, limit int) ([]dto.ScoreboardEntry, error) {
	cacheKey := fmt.Sprintf("%s%d", ScoreboardKeyPrefix, limit)
	var cached []dto.ScoreboardEntry
	if found, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		s.deps.Logger.Warn("read scoreboard cache failed", "error", err)
	}

	// 辅助结构体，用于从原始解题记录中聚合数据
	type solveRow struct {
		UserID      uint32
		TeamID      uint32
		ChallengeID uint32
		Value       int
		SolvedAt    time.Time
	}
	var rows []solveRow
	if err := s.deps.DB.WithContext(ctx).Table("dalictf_solve s").
		Select("s.user_id, s.team_id, s.challenge_id, c.value, s.solved_at").
		Joins("JOIN dalictf_challenge c ON c.id = s.challenge_id").
		Where("c.state = ?", models.ChallengeStateVisible).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load solves: %w", err)
	}

	type agg struct {
		key   accountKey
		score int
		last  time.Time
		seen  map[uint32]struct{}
	}
	byAccount := make(map[accountKey]*agg)
	for _, r := range rows {
		key := accountKey{kind: AccountTypeUser, id: r.UserID}
		if r.TeamID != 0 {
			key = accountKey{kind: AccountTypeTeam, id: r.TeamID}
		}
		a, ok := byAccount[key]
		if !ok {
			a = &agg{key: key, seen: make(map[uint32]struct{})}
			byAccount[key] = a
		}
		if _, dup := a.seen[r.ChallengeID]; dup {
			continue
		}
		a.seen[r.ChallengeID] = struct{}{}
		a.score += r.Value
		if r.SolvedAt.After(a.last) {
			a.last = r.SolvedAt
		}
	}

	list := make([]*agg, 0, len(byAccount))
	for _, a := range byAccount {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		if !list[i].last.Equal(list[j].last) {
			return list[i].last.Before(list[j].last)
		}
		if list[i].key.kind != list[j].key.kind {
			return list[i].key.kind < list[j].key.kind
		}
		return list[i].key.id < list[j].key.id
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	keys := make([]accountKey, 0, len(list))
	for _, a := range list {
		keys = append(keys, a.key)
	}
	names, err := s.accountNames(ctx, keys)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.ScoreboardEntry, 0, len(list))
	for i, a := range list {
		last := a.last
		entries = append(entries, dto.ScoreboardEntry{
			Rank:          i + 1,
			AccountType:   a.key.kind,
			AccountID:     a.key.id,
			Name:          names[a.key],
			Score:         a.score,
			LastSolveTime: &last,
		})
	}

	if err := s.cache.SetJSON(ctx, cacheKey, entries, s.ttl); err != nil {
		s.deps.Logger.Warn("write scoreboard cache failed", "error", err)
	}
	return entries, nil
}

func (s *ScoreboardService) accountNames(ctx context.Context, keys []accountKey) (map[accountKey]string, error) {
	var teamIDs, userIDs []uint32
	for _, k := range keys {
		if k.kind == AccountTypeTeam {
			teamIDs = append(teamIDs, k.id)
		} else {
			userIDs = append(userIDs, k.id)
		}
	}
	names := make(map[accountKey]string, len(keys))
	db := s.deps.DB.WithContext(ctx)
	if len(teamIDs) > 0 {
		var teams []models.Team
		if err := db.Select("id", "team_name").Where("id IN ?", teamIDs).Find(&teams).Error; err != nil {
			return nil, fmt.Errorf("load team names: %w", err)
		}
		for _, t := range teams {
			names[accountKey{AccountTypeTeam, t.ID}] = t.TeamName
		}
	}
	if len(userIDs) > 0 {
		var users []models.User
		if err := db.Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load user names: %w", err)
		}
		for _, u := range users {
			names[accountKey{AccountTypeUser, u.ID}] = u.Username
		}
	}
	return names, nil
}

// Feed 最近的解题动态
func (s *ScoreboardService) Feed(ctx context.Context, limit int) ([]models.SolveFeed, error) {
	var results []models.SolveFeed
	err := s.deps.DB.WithContext(ctx).
		Order("solving_time desc").
		Order("id desc").
		Limit(limit).
		Find(&results).Error
	return results, err
}
