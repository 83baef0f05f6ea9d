package service

import (
	"Herald/internal/model"
	"Herald/internal/pkg/mongo"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	details map[uint64]*model.UserDetail
	calls   int
	err     error
}

func newFakeUserRepo(details ...*model.UserDetail) *fakeUserRepo {
	r := &fakeUserRepo{details: map[uint64]*model.UserDetail{}}
	for _, d := range details {
		r.details[d.UserID] = d
	}
	return r
}

func (r *fakeUserRepo) GetUserSimpleInfoById(_ context.Context, id uint64) (*model.UserDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.details[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeUserRepo) GetUserSimpleInfoByIds(_ context.Context, ids []uint64) ([]*model.UserDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*model.UserDetail, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.details[id]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetUserIDsByNicknames(_ context.Context, nicknames []string) ([]*model.UserDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	// 模拟 MySQL 默认排序规则：不区分大小写，按 user_id 升序
	out := make([]*model.UserDetail, 0)
	for _, d := range r.details {
		for _, name := range nicknames {
			if strings.EqualFold(d.Nickname, name) {
				out = append(out, &model.UserDetail{UserID: d.UserID, Nickname: d.Nickname})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type fakePostRepo struct {
	posts map[uint64]*model.Post
	err   error
}

func (r *fakePostRepo) GetPostByIds(_ context.Context, ids []uint64) ([]*model.Post, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type sent struct {
	userID  uint64
	payload any
}

// fakePusher 记录推送，online 中的用户视为在线
type fakePusher struct {
	mu        sync.Mutex
	online    map[uint64]bool
	sends     []sent
	broadcast []any
}

func newFakePusher(online ...uint64) *fakePusher {
	p := &fakePusher{online: map[uint64]bool{}}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *fakePusher) Send(_ context.Context, userID uint64, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, sent{userID: userID, payload: payload})
	return p.online[userID]
}

func (p *fakePusher) Broadcast(_ context.Context, payload any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, payload)
	return len(p.online)
}

func (p *fakePusher) Sends() []sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sent(nil), p.sends...)
}

// failingStore 所有写操作都失败
type failingStore struct {
	mongo.SysBoxRepo
	attempts int
}

var errStoreDown = errors.New("store unavailable")

func (s *failingStore) CreateNotification(context.Context, *mongo.SysBoxModel) error {
	s.attempts++
	return errStoreDown
}

func (s *failingStore) MarkAsRead(context.Context, uint64, primitive.ObjectID) error {
	return errStoreDown
}
