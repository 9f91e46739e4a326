package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Lookups(t *testing.T) {
	c := Default()

	cases := []struct {
		name   string
		id     string
		damage int
		cost   int
	}{
		{name: "pistol is free", id: "pistol", damage: 25, cost: 0},
		{name: "rifle", id: "rifle", damage: 35, cost: 100},
		{name: "shotgun", id: "shotgun", damage: 60, cost: 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := c.Weapon(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.damage, w.Damage)
			assert.Equal(t, tc.cost, w.Cost)
		})
	}

	_, ok := c.Weapon("railgun")
	assert.False(t, ok)

	hp, ok := c.PowerUp("health_boost")
	require.True(t, ok)
	assert.Equal(t, PowerUpHealthBoost, hp.Kind)
	assert.Equal(t, 50, hp.Effect.HealthRestore)

	_, ok = c.PowerUp("moon_boots")
	assert.False(t, ok)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Default()

	w, _ := c.Weapon("rifle")
	w.Damage = 9999

	again, _ := c.Weapon("rifle")
	assert.Equal(t, 35, again.Damage)

	list := c.Weapons()
	list[0].Name = "mutated"
	assert.Equal(t, "Pistol", c.Weapons()[0].Name)
}

func TestStarterWeapon(t *testing.T) {
	assert.Equal(t, "pistol", Default().StarterWeapon().ID)

	custom := New([]Weapon{{ID: "blaster", Damage: 10}}, nil)
	assert.Equal(t, "blaster", custom.StarterWeapon().ID)
}
