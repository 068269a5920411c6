package application

import (
	"sync"

	"github.com/bnema/shiftlog/internal/domain"
)

type userKey struct {
	tenant domain.TenantID
	user   domain.UserID
}

// Locks serializes work per tenant and per (tenant, user). Session mutations
// hold the tenant read lock and the user lock; archiving holds the tenant
// write lock.
type Locks struct {
	registryMu sync.Mutex
	tenants    map[domain.TenantID]*sync.RWMutex
	users      map[userKey]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{
		tenants: map[domain.TenantID]*sync.RWMutex{},
		users:   map[userKey]*sync.Mutex{},
	}
}

func (l *Locks) LockUser(tenant domain.TenantID, user domain.UserID) func() {
	tenantMu := l.forTenant(tenant)
	userMu := l.forUser(tenant, user)

	tenantMu.RLock()
	userMu.Lock()

	return func() {
		userMu.Unlock()
		tenantMu.RUnlock()
	}
}

func (l *Locks) LockTenant(tenant domain.TenantID) func() {
	mu := l.forTenant(tenant)
	mu.Lock()
	return mu.Unlock
}

func (l *Locks) RLockTenant(tenant domain.TenantID) func() {
	mu := l.forTenant(tenant)
	mu.RLock()
	return mu.RUnlock
}

func (l *Locks) forTenant(tenant domain.TenantID) *sync.RWMutex {
	l.registryMu.Lock()
	defer l.registryMu.Unlock()

	if mu, ok := l.tenants[tenant]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	l.tenants[tenant] = mu
	return mu
}

func (l *Locks) forUser(tenant domain.TenantID, user domain.UserID) *sync.Mutex {
	l.registryMu.Lock()
	defer l.registryMu.Unlock()

	key := userKey{tenant: tenant, user: user}
	if mu, ok := l.users[key]; ok {
		return mu
	}

	mu := &sync.Mutex{}
	l.users[key] = mu
	return mu
}
