package application

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocksTenantWriteLockExcludesUserLocks(t *testing.T) {
	t.Parallel()

	locks := NewLocks()
	unlockTenant := locks.LockTenant("guild")

	acquired := make(chan struct{})
	go func() {
		unlock := locks.LockUser("guild", "alice")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("user lock acquired while tenant is write-locked")
	case <-time.After(20 * time.Millisecond):
	}

	unlockTenant()
	<-acquired
}

func TestLocksUsersAreIndependent(t *testing.T) {
	t.Parallel()

	locks := NewLocks()
	unlockAlice := locks.LockUser("guild", "alice")
	defer unlockAlice()

	var wg sync.WaitGroup
	wg.Add(1)
	done := false
	go func() {
		defer wg.Done()
		unlock := locks.LockUser("guild", "bob")
		done = true
		unlock()
	}()
	wg.Wait()

	assert.True(t, done)
}
