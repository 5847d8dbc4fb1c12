package achievements

// Rarity represents the presentation and value tier of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AllRarities returns all rarities in order from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// Valid reports whether r is one of the four tiers.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the rarity.
func (r Rarity) DisplayName() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return string(r)
	}
}

// Rank orders rarities: common=0 through legendary=3.
func (r Rarity) Rank() int {
	switch r {
	case RarityRare:
		return 1
	case RarityEpic:
		return 2
	case RarityLegendary:
		return 3
	default:
		return 0
	}
}

// Presentation is how the UI should celebrate an unlock.
type Presentation struct {
	ShowConfetti bool
	AutoDismiss  bool
}

// PresentationFor derives the celebration style from rarity.
func PresentationFor(r Rarity) Presentation {
	switch r {
	case RarityRare:
		return Presentation{ShowConfetti: true, AutoDismiss: true}
	case RarityEpic, RarityLegendary:
		return Presentation{ShowConfetti: true, AutoDismiss: false}
	default:
		return Presentation{ShowConfetti: false, AutoDismiss: true}
	}
}
