package catalog

var defaultWeapons = []Weapon{
	{ID: "pistol", Name: "Pistol", Damage: 25, Cost: 0, Ammo: 12, MaxAmmo: 12, FireRate: 2, Range: 10, Type: WeaponPistol},
	{ID: "rifle", Name: "Assault Rifle", Damage: 35, Cost: 100, Ammo: 30, MaxAmmo: 30, FireRate: 5, Range: 20, Type: WeaponRifle},
	{ID: "shotgun", Name: "Shotgun", Damage: 60, Cost: 150, Ammo: 8, MaxAmmo: 8, FireRate: 1, Range: 5, Type: WeaponShotgun},
}

var defaultPowerUps = []PowerUp{
	{ID: "health_boost", Name: "Health Pack", Kind: PowerUpHealthBoost, Duration: 0, Effect: Effect{HealthRestore: 50}, Cost: 50},
	{ID: "speed_boost", Name: "Speed Boost", Kind: PowerUpSpeedBoost, Duration: 30, Effect: Effect{SpeedMultiplier: 1.5}, Cost: 75},
	{ID: "extra_life", Name: "Extra Life", Kind: PowerUpExtraLife, Duration: 0, Effect: Effect{Lives: 1}, Cost: 200},
}

var defaultCatalog = New(defaultWeapons, defaultPowerUps)

// Default returns the built-in catalog shared by every lobby.
func Default() *Catalog { return defaultCatalog }
