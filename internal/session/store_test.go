package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreatesLazily(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("42")
	assert.False(t, ok)
	assert.Zero(t, s.Len())

	require.NoError(t, s.Do("42", func(sess *Session) error {
		assert.Equal(t, "42", sess.ID)
		assert.Empty(t, sess.CurrentCategory)
		assert.Nil(t, sess.Preferences)
		assert.Nil(t, sess.Setup)
		sess.CurrentCategory = "mice"
		return nil
	}))

	snap, ok := s.Get("42")
	require.True(t, ok)
	assert.Equal(t, "mice", snap.CurrentCategory)
	assert.Equal(t, 1, s.Len())
}

func TestDoKeepsWritesOnError(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	err := s.Do("7", func(sess *Session) error {
		sess.Preferences = &Preferences{Usage: "work"}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	snap, _ := s.Get("7")
	require.NotNil(t, snap.Preferences)
	assert.Equal(t, "work", snap.Preferences.Usage)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	_ = s.Do("1", func(sess *Session) error {
		sess.Setup = &SetupAnswers{Genre: "rpg"}
		return nil
	})
	snap, _ := s.Get("1")
	snap.Setup.Genre = "moba"
	again, _ := s.Get("1")
	assert.Equal(t, "rpg", again.Setup.Genre)
}

func TestSessionsArePartitioned(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%5))
			_ = s.Do(id, func(sess *Session) error {
				sess.CurrentBrand = id
				return nil
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		snap, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, id, snap.CurrentBrand)
	}
}
