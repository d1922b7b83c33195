package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	a := &Account{Started: true, Available: true}
	assert.True(t, a.IsActive())

	a.Available = false
	assert.False(t, a.IsActive())

	a.Started = false
	a.Available = true
	assert.False(t, a.IsActive())
}

func TestPushRecentPartner(t *testing.T) {
	a := &Account{}

	a.PushRecentPartner("bob@example.com", 3)
	a.PushRecentPartner("carol@example.com", 3)
	assert.Equal(t, []string{"carol@example.com", "bob@example.com"}, a.RecentPartnerList())

	// 重复对象提到最前，不重复记录
	a.PushRecentPartner("bob@example.com", 3)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, a.RecentPartnerList())

	// 超出上限截断最旧的
	a.PushRecentPartner("dave@example.com", 3)
	a.PushRecentPartner("erin@example.com", 3)
	assert.Equal(t, []string{"erin@example.com", "dave@example.com", "bob@example.com"}, a.RecentPartnerList())
}

func TestPushRecentPartnerIgnoresEmpty(t *testing.T) {
	a := &Account{}
	a.PushRecentPartner("", 3)
	assert.Empty(t, a.RecentPartnerList())
}

func TestRecentPartnerListDirtyData(t *testing.T) {
	a := &Account{RecentPartners: "{not json"}
	assert.Nil(t, a.RecentPartnerList())
}

func TestEqual(t *testing.T) {
	a := &Account{Handle: "alice@example.com"}
	b := &Account{Handle: "alice@example.com"}
	c := &Account{Handle: "bob@example.com"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
