package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"draftpress/internal/common"
	"draftpress/internal/domain/model"
)

// MemoryStore is a process-local store backing both repositories.
// It is used by tests and by STORAGE_DRIVER=memory for local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	posts   map[string]*memPost
	seq     int64
	now     func() time.Time
}

type memPost struct {
	post model.Post
	seq  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   map[string]*model.User{},
		byEmail: map[string]string{},
		posts:   map[string]*memPost{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Users() UserRepository { return memUserRepository{s} }
func (s *MemoryStore) Posts() PostRepository { return memPostRepository{s} }

type memUserRepository struct{ s *MemoryStore }

func (r memUserRepository) Create(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return fmt.Errorf("user with email %q already exists: %w", user.Email, common.ErrDuplicateKey)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user with id %q already exists: %w", user.ID, common.ErrDuplicateKey)
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[user.Email] = user.ID
	return nil
}

func (r memUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (r memUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// DeleteUser removes a user. Only tests and operators use it; no HTTP route deletes users.
func (s *MemoryStore) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.users, id)
	}
	// Mirrors ON DELETE CASCADE on posts.owner_id.
	for postID, mp := range s.posts {
		if mp.post.OwnerID == id {
			delete(s.posts, postID)
		}
	}
}

type memPostRepository struct{ s *MemoryStore }

func (r memPostRepository) Create(_ context.Context, post *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[post.ID]; exists {
		return fmt.Errorf("post with id %q already exists: %w", post.ID, common.ErrDuplicateKey)
	}
	now := s.now()
	post.CreatedAt, post.UpdatedAt = now, now
	s.seq++
	s.posts[post.ID] = &memPost{post: *post, seq: s.seq}
	return nil
}

func (r memPostRepository) ListByOwner(_ context.Context, ownerID string) ([]model.Post, error) {
	s := r.s
	s.mu.RLock()
	// Copies are taken under the lock; Update mutates the stored posts in place.
	matched := make([]memPost, 0)
	for _, mp := range s.posts {
		if mp.post.OwnerID == ownerID {
			matched = append(matched, *mp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})
	posts := make([]model.Post, 0, len(matched))
	for _, mp := range matched {
		posts = append(posts, mp.post)
	}
	return posts, nil
}

func (r memPostRepository) FindByID(_ context.Context, ownerID, id string) (*model.Post, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	mp, ok := s.posts[id]
	if !ok || mp.post.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	cp := mp.post
	return &cp, nil
}

func (r memPostRepository) Update(_ context.Context, ownerID, id string, patch model.PostPatch) (*model.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.posts[id]
	if !ok || mp.post.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	patch.Apply(&mp.post)
	mp.post.UpdatedAt = s.now()
	cp := mp.post
	return &cp, nil
}

func (r memPostRepository) Delete(_ context.Context, ownerID, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.posts[id]
	if !ok || mp.post.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}
