package catalog

type WeaponType string

const (
	WeaponPistol  WeaponType = "pistol"
	WeaponRifle   WeaponType = "rifle"
	WeaponShotgun WeaponType = "shotgun"
	WeaponSniper  WeaponType = "sniper"
	WeaponLaser   WeaponType = "laser"
)

type PowerUpKind string

const (
	PowerUpHealthBoost  PowerUpKind = "health_boost"
	PowerUpSpeedBoost   PowerUpKind = "speed_boost"
	PowerUpDamageBoost  PowerUpKind = "damage_boost"
	PowerUpShield       PowerUpKind = "shield"
	PowerUpInvisibility PowerUpKind = "invisibility"
	PowerUpExtraLife    PowerUpKind = "extra_life"
)

// StarterWeaponID is the zero-cost weapon every player joins with.
const StarterWeaponID = "pistol"

type Weapon struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Damage   int        `json:"damage"`
	Cost     int        `json:"cost"`
	Ammo     int        `json:"ammo,omitempty"`
	MaxAmmo  int        `json:"maxAmmo,omitempty"`
	FireRate float64    `json:"fireRate"` // shots per second
	Range    int        `json:"range"`
	Type     WeaponType `json:"type"`
}

// Effect is the kind-specific payload of a power-up. Only the fields
// relevant to the power-up's kind are set.
type Effect struct {
	HealthRestore    int     `json:"healthRestore,omitempty"`
	SpeedMultiplier  float64 `json:"speedMultiplier,omitempty"`
	DamageMultiplier float64 `json:"damageMultiplier,omitempty"`
	Lives            int     `json:"lives,omitempty"`
}

type PowerUp struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     PowerUpKind `json:"type"`
	Duration int         `json:"duration"` // seconds, 0 = instantaneous
	Effect   Effect      `json:"effect"`
	Cost     int         `json:"cost"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	weapons  []Weapon
	powerUps []PowerUp
	weaponIx map[string]int
	powerIx  map[string]int
}

func New(weapons []Weapon, powerUps []PowerUp) *Catalog {
	c := &Catalog{
		weapons:  append([]Weapon(nil), weapons...),
		powerUps: append([]PowerUp(nil), powerUps...),
		weaponIx: make(map[string]int, len(weapons)),
		powerIx:  make(map[string]int, len(powerUps)),
	}
	for i, w := range c.weapons {
		c.weaponIx[w.ID] = i
	}
	for i, p := range c.powerUps {
		c.powerIx[p.ID] = i
	}
	return c
}

// Weapon returns a copy of the weapon registered under id.
func (c *Catalog) Weapon(id string) (Weapon, bool) {
	i, ok := c.weaponIx[id]
	if !ok {
		return Weapon{}, false
	}
	return c.weapons[i], true
}

// PowerUp returns a copy of the power-up registered under id.
func (c *Catalog) PowerUp(id string) (PowerUp, bool) {
	i, ok := c.powerIx[id]
	if !ok {
		return PowerUp{}, false
	}
	return c.powerUps[i], true
}

func (c *Catalog) Weapons() []Weapon {
	return append([]Weapon(nil), c.weapons...)
}

func (c *Catalog) PowerUps() []PowerUp {
	return append([]PowerUp(nil), c.powerUps...)
}

// StarterWeapon is the weapon handed out on join.
func (c *Catalog) StarterWeapon() Weapon {
	w, ok := c.Weapon(StarterWeaponID)
	if !ok && len(c.weapons) > 0 {
		return c.weapons[0]
	}
	return w
}
