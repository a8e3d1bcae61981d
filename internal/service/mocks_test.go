package service

import (
	"context"
	"sort"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// mockUserRepository is an in-memory UserRepository for tests.
type mockUserRepository struct {
	users     map[int64]*domain.User
	userRoles map[int64]map[int64]struct{}
	nextID    int64

	createErr error
	getErr    error
	updateErr error
	attachErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     make(map[int64]*domain.User),
		userRoles: make(map[int64]map[int64]struct{}),
		nextID:    1,
	}
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) Update(_ context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.userRoles, id)
	return nil
}

func (m *mockUserRepository) List(_ context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var ids []int64
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var items []*domain.User
	for i, id := range ids {
		if i < opts.Offset {
			continue
		}
		if len(items) >= opts.Limit {
			break
		}
		copied := *m.users[id]
		items = append(items, &copied)
	}
	return &repository.ListResult[domain.User]{
		Items:  items,
		Total:  int64(len(m.users)),
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *mockUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) AttachRole(_ context.Context, userID, roleID int64) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]struct{})
	}
	m.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (m *mockUserRepository) DetachRole(_ context.Context, userID, roleID int64) error {
	delete(m.userRoles[userID], roleID)
	return nil
}

func (m *mockUserRepository) ListRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for id := range m.userRoles[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// mockRoleRepository is an in-memory RoleRepository for tests.
type mockRoleRepository struct {
	roles      map[int64]*domain.Role
	roleRights map[int64]map[int64]struct{}
	nextID     int64

	// rightsRepo, when set, lets ListRightNames resolve right ids to names
	// the way the SQL join does.
	rightsRepo *mockRightRepository

	createErr error
	getErr    error
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{
		roles:      make(map[int64]*domain.Role),
		roleRights: make(map[int64]map[int64]struct{}),
		nextID:     1,
	}
}

func (m *mockRoleRepository) Create(_ context.Context, role *domain.Role) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return domain.ErrRoleAlreadyExists
		}
	}
	role.ID = m.nextID
	m.nextID++
	copied := *role
	m.roles[role.ID] = &copied
	return nil
}

func (m *mockRoleRepository) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	role, ok := m.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	copied := *role
	return &copied, nil
}

func (m *mockRoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, role := range m.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (m *mockRoleRepository) Update(_ context.Context, role *domain.Role) error {
	if _, ok := m.roles[role.ID]; !ok {
		return domain.ErrRoleNotFound
	}
	copied := *role
	m.roles[role.ID] = &copied
	return nil
}

func (m *mockRoleRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(m.roles, id)
	delete(m.roleRights, id)
	return nil
}

func (m *mockRoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	var ids []int64
	for id := range m.roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	roles := make([]*domain.Role, 0, len(ids))
	for _, id := range ids {
		copied := *m.roles[id]
		roles = append(roles, &copied)
	}
	return roles, nil
}

func (m *mockRoleRepository) AttachRight(_ context.Context, roleID, rightID int64) error {
	if m.roleRights[roleID] == nil {
		m.roleRights[roleID] = make(map[int64]struct{})
	}
	m.roleRights[roleID][rightID] = struct{}{}
	return nil
}

func (m *mockRoleRepository) DetachRight(_ context.Context, roleID, rightID int64) error {
	delete(m.roleRights[roleID], rightID)
	return nil
}

func (m *mockRoleRepository) ListRightNames(_ context.Context, roleID int64) ([]string, error) {
	if m.rightsRepo == nil {
		return nil, nil
	}
	var names []string
	for rightID := range m.roleRights[roleID] {
		if right, ok := m.rightsRepo.rights[rightID]; ok {
			names = append(names, right.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockRoleRepository) ListUserIDs(_ context.Context, roleID int64) ([]int64, error) {
	return nil, nil
}

// mockRightRepository is an in-memory RightRepository for tests.
type mockRightRepository struct {
	rights map[int64]*domain.Right
	nextID int64

	createErr error
}

func newMockRightRepository() *mockRightRepository {
	return &mockRightRepository{
		rights: make(map[int64]*domain.Right),
		nextID: 1,
	}
}

func (m *mockRightRepository) Create(_ context.Context, right *domain.Right) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.rights {
		if existing.Name == right.Name {
			return domain.ErrRightAlreadyExists
		}
	}
	right.ID = m.nextID
	m.nextID++
	copied := *right
	m.rights[right.ID] = &copied
	return nil
}

func (m *mockRightRepository) GetByID(_ context.Context, id int64) (*domain.Right, error) {
	right, ok := m.rights[id]
	if !ok {
		return nil, domain.ErrRightNotFound
	}
	copied := *right
	return &copied, nil
}

func (m *mockRightRepository) GetByName(_ context.Context, name string) (*domain.Right, error) {
	for _, right := range m.rights {
		if right.Name == name {
			copied := *right
			return &copied, nil
		}
	}
	return nil, domain.ErrRightNotFound
}

func (m *mockRightRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.rights[id]; !ok {
		return domain.ErrRightNotFound
	}
	delete(m.rights, id)
	return nil
}

func (m *mockRightRepository) List(_ context.Context) ([]*domain.Right, error) {
	var ids []int64
	for id := range m.rights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rights := make([]*domain.Right, 0, len(ids))
	for _, id := range ids {
		copied := *m.rights[id]
		rights = append(rights, &copied)
	}
	return rights, nil
}

// mockAuditRepository is an in-memory AuditRepository for tests.
type mockAuditRepository struct {
	events []*domain.AuditEvent
	nextID int64

	recordErr error
	listErr   error
	deleteErr error
}

func newMockAuditRepository() *mockAuditRepository {
	return &mockAuditRepository{nextID: 1}
}

func (m *mockAuditRepository) Record(_ context.Context, event *domain.AuditEvent) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	event.ID = m.nextID
	m.nextID++
	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

func (m *mockAuditRepository) ListAfter(_ context.Context, afterID int64, limit int) ([]*domain.AuditEvent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.AuditEvent
	for _, event := range m.events {
		if event.ID <= afterID {
			continue
		}
		if len(out) >= limit {
			break
		}
		copied := *event
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockAuditRepository) DeleteThrough(_ context.Context, throughID int64) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var kept []*domain.AuditEvent
	var deleted int64
	for _, event := range m.events {
		if event.ID <= throughID {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	m.events = kept
	return deleted, nil
}

func (m *mockAuditRepository) actions() []domain.AuditAction {
	actions := make([]domain.AuditAction, 0, len(m.events))
	for _, event := range m.events {
		actions = append(actions, event.Action)
	}
	return actions
}
