package device

// catalog is the fixed device table. Aliases must follow their target.
var catalog = []Profile{
	// Canonical tiers
	{ID: "mobile", Width: 390, Height: 844, DisplayName: "Mobile", Tier: TierMobile},
	{ID: "tablet", Width: 768, Height: 1024, DisplayName: "Tablet", Tier: TierTablet},
	{ID: "laptop", Width: 1366, Height: 768, DisplayName: "Laptop", Tier: TierLaptop},
	{ID: "desktop", Width: 1920, Height: 1080, DisplayName: "Desktop", Tier: TierDesktop},

	// Named devices
	{ID: "mobile-se", Width: 375, Height: 667, DisplayName: "iPhone SE", Tier: TierMobile},
	{ID: "mobile-17", Width: 393, Height: 852, DisplayName: "iPhone 17", Tier: TierMobile},
	{ID: "iphone-pro-max", Width: 430, Height: 932, DisplayName: "iPhone Pro Max", Tier: TierMobile},
	{ID: "pixel-8", Width: 412, Height: 915, DisplayName: "Google Pixel 8", Tier: TierMobile},
	{ID: "galaxy-s24", Width: 360, Height: 780, DisplayName: "Samsung Galaxy S24", Tier: TierMobile},
	{ID: "ipad-mini", Width: 744, Height: 1133, DisplayName: "iPad mini", Tier: TierTablet},
	{ID: "ipad-pro", Width: 1024, Height: 1366, DisplayName: "iPad Pro 12.9", Tier: TierTablet},
	{ID: "galaxy-tab", Width: 800, Height: 1280, DisplayName: "Samsung Galaxy Tab S9", Tier: TierTablet},
	{ID: "macbook-air", Width: 1470, Height: 956, DisplayName: "MacBook Air 15", Tier: TierLaptop},
	{ID: "macbook-pro", Width: 1728, Height: 1117, DisplayName: "MacBook Pro 16", Tier: TierLaptop},
	{ID: "desktop-2k", Width: 2560, Height: 1440, DisplayName: "Desktop QHD", Tier: TierDesktop},
	{ID: "desktop-4k", Width: 3840, Height: 2160, DisplayName: "Desktop 4K", Tier: TierDesktop},

	// Legacy aliases
	{ID: "phone", Width: 390, Height: 844, DisplayName: "Mobile", Tier: TierMobile, AliasOf: "mobile"},
	{ID: "ipad", Width: 768, Height: 1024, DisplayName: "Tablet", Tier: TierTablet, AliasOf: "tablet"},
	{ID: "notebook", Width: 1366, Height: 768, DisplayName: "Laptop", Tier: TierLaptop, AliasOf: "laptop"},
	{ID: "pc", Width: 1920, Height: 1080, DisplayName: "Desktop", Tier: TierDesktop, AliasOf: "desktop"},
}

var defaultRegistry = mustDefault()

func mustDefault() *Registry {
	r, err := New(catalog...)
	if err != nil {
		panic(err)
	}
	r, err = r.WithCanonical("mobile", "tablet", "laptop", "desktop")
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the built-in registry.
func Default() *Registry {
	return defaultRegistry
}
