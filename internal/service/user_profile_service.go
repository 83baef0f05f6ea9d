package service

import (
	"Herald/internal/api/config"
	"Herald/internal/api/dto"
	"Herald/internal/model"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/minio"
	"Herald/internal/pkg/redis"
	"Herald/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const userSimpleInfoTTL = 10 * time.Minute

// ProfileCache 用户快照缓存
type ProfileCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type redisProfileCache struct{}

// NewRedisProfileCache 基于全局 Redis 客户端
func NewRedisProfileCache() ProfileCache {
	return redisProfileCache{}
}

func (redisProfileCache) Get(ctx context.Context, key string) (string, error) {
	return redis.GetValue(ctx, key)
}

func (redisProfileCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return redis.SetWithExpiration(ctx, key, value, ttl)
}

type UserProfileService interface {
	// GetUserSimpleInfo 用户不存在时返回 nil, nil
	GetUserSimpleInfo(ctx context.Context, userID uint64) (*dto.UserSimpleDTO, error)
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) (map[uint64]*dto.UserSimpleDTO, error)
	ResolveNicknames(ctx context.Context, nicknames []string) (map[string]uint64, error)
}

type userProfileServiceImpl struct {
	userRepo repository.UserRepo
	cache    ProfileCache
	minioCfg config.MinIOConfig
}

func NewUserProfileService(userRepo repository.UserRepo, cache ProfileCache, minioCfg config.MinIOConfig) UserProfileService {
	return &userProfileServiceImpl{
		userRepo: userRepo,
		cache:    cache,
		minioCfg: minioCfg,
	}
}

func userSimpleInfoKey(id uint64) string {
	return consts.UserSimpleInfoKey + strconv.FormatUint(id, 10)
}

func (s *userProfileServiceImpl) GetUserSimpleInfo(ctx context.Context, userID uint64) (*dto.UserSimpleDTO, error) {
	users, err := s.GetUserSimpleInfoByIds(ctx, []uint64{userID})
	if err != nil {
		return nil, err
	}
	return users[userID], nil
}

// GetUserSimpleInfoByIds 先读缓存，未命中的批量回源并回填
func (s *userProfileServiceImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) (map[uint64]*dto.UserSimpleDTO, error) {
	mp := make(map[uint64]*dto.UserSimpleDTO, len(ids))
	newIds := make([]uint64, 0, len(ids))

	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, seen := mp[id]; seen {
			continue
		}
		if cached := s.fromCache(ctx, id); cached != nil {
			mp[id] = cached
			continue
		}
		mp[id] = nil
		newIds = append(newIds, id)
	}

	if len(newIds) > 0 {
		var details []*model.UserDetail
		var err error
		if len(newIds) == 1 {
			var detail *model.UserDetail
			detail, err = s.userRepo.GetUserSimpleInfoById(ctx, newIds[0])
			if detail != nil {
				details = append(details, detail)
			}
		} else {
			details, err = s.userRepo.GetUserSimpleInfoByIds(ctx, newIds)
		}
		if err != nil {
			return nil, err
		}

		for _, detail := range details {
			userDTO := &dto.UserSimpleDTO{}
			if err = copier.Copy(userDTO, detail); err != nil {
				return nil, err
			}
			userDTO.AvatarURL = minio.GetPublicURL(s.minioCfg, detail.AvatarURL)
			mp[detail.UserID] = userDTO
			s.toCache(ctx, userDTO)
		}
	}

	for id, v := range mp {
		if v == nil {
			delete(mp, id)
		}
	}
	return mp, nil
}

// ResolveNicknames 请求的昵称 -> 用户ID，未匹配的昵称不出现在结果中
// 与库的排序规则一致按不区分大小写比较，同名时取 user_id 最小的用户
func (s *userProfileServiceImpl) ResolveNicknames(ctx context.Context, nicknames []string) (map[string]uint64, error) {
	res := make(map[string]uint64, len(nicknames))
	if len(nicknames) == 0 {
		return res, nil
	}
	users, err := s.userRepo.GetUserIDsByNicknames(ctx, nicknames)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]uint64, len(users))
	for _, u := range users {
		key := nicknameKey(u.Nickname)
		if _, ok := byKey[key]; !ok {
			byKey[key] = u.UserID
		}
	}
	for _, name := range nicknames {
		if id, ok := byKey[nicknameKey(name)]; ok {
			res[name] = id
		}
	}
	return res, nil
}

func nicknameKey(name string) string {
	return strings.ToLower(name)
}

func (s *userProfileServiceImpl) fromCache(ctx context.Context, id uint64) *dto.UserSimpleDTO {
	if s.cache == nil {
		return nil
	}
	value, err := s.cache.Get(ctx, userSimpleInfoKey(id))
	if err != nil {
		log.WarnContext(ctx, "user cache read failed", "userID", id, "err", err)
		return nil
	}
	if value == "" {
		return nil
	}
	var userDTO dto.UserSimpleDTO
	if err = json.Unmarshal([]byte(value), &userDTO); err != nil {
		return nil
	}
	return &userDTO
}

func (s *userProfileServiceImpl) toCache(ctx context.Context, userDTO *dto.UserSimpleDTO) {
	if s.cache == nil {
		return
	}
	jsonStr, err := json.Marshal(userDTO)
	if err != nil {
		return
	}
	if err = s.cache.Set(ctx, userSimpleInfoKey(userDTO.UserID), string(jsonStr), userSimpleInfoTTL); err != nil {
		log.WarnContext(ctx, "user cache write failed", "userID", userDTO.UserID, "err", err)
	}
}
