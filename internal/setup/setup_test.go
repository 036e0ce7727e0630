package setup

import (
	"os"
	"path/filepath"
	"testing"

	"gearbot/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) *catalog.Catalog {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", "catalog.json"))
	require.NoError(t, err)
	c, err := catalog.Parse(data)
	require.NoError(t, err)
	return c
}

func TestMatchPicksFirstMarkedProduct(t *testing.T) {
	b := Match(Answers{Genre: "moba", HandSize: "small", SwitchType: "tactile"}, fixture(t))

	require.NotNil(t, b.Mouse)
	assert.Equal(t, "Viper Mini", b.Mouse.Model)
	require.NotNil(t, b.Keyboard)
	assert.Equal(t, "G Pro X", b.Keyboard.Model)
	require.NotNil(t, b.Headphones)
	assert.Equal(t, "Cloud II", b.Headphones.Model)
	assert.Equal(t, AdviceFor("moba"), b.Advice)
}

func TestMatchLargeHandWithoutLargeMouse(t *testing.T) {
	b := Match(Answers{Genre: "rpg", HandSize: "large", SwitchType: "linear"}, fixture(t))
	assert.Nil(t, b.Mouse)
	require.NotNil(t, b.Keyboard)
	assert.Equal(t, "Huntsman V2", b.Keyboard.Model)
	assert.NotNil(t, b.Headphones)
}

func TestMatchIsTotal(t *testing.T) {
	c := fixture(t)
	genres := []string{"shooter", "moba", "strategy", "rpg", "racing", ""}
	hands := []string{"small", "medium", "large", "huge", ""}
	switches := []string{"linear", "tactile", "clicky", "silent", ""}
	for _, g := range genres {
		for _, h := range hands {
			for _, s := range switches {
				assert.NotPanics(t, func() {
					b := Match(Answers{Genre: g, HandSize: h, SwitchType: s}, c)
					assert.NotEmpty(t, b.Advice.Remark)
				})
			}
		}
	}
	assert.NotPanics(t, func() { Match(Answers{}, nil) })
	assert.NotPanics(t, func() { Match(Answers{}, catalog.Empty()) })
}

func TestUnknownGenreFallsBackToShooter(t *testing.T) {
	assert.Equal(t, AdviceFor("shooter"), AdviceFor("racing"))
	b := Match(Answers{Genre: "racing"}, catalog.Empty())
	assert.Equal(t, AdviceFor(DefaultGenre), b.Advice)
	assert.Nil(t, b.Mouse)
	assert.Nil(t, b.Keyboard)
	assert.Nil(t, b.Headphones)
}

func TestHeadphonesIgnoreGenre(t *testing.T) {
	c := fixture(t)
	a := Match(Answers{Genre: "shooter"}, c)
	b := Match(Answers{Genre: "strategy"}, c)
	require.NotNil(t, a.Headphones)
	assert.Equal(t, a.Headphones.Key, b.Headphones.Key)
}
