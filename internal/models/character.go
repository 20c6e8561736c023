package models

// House is the Hogwarts house a character is sorted into
type House string

// Houses accepted by the schema
const (
	HouseGryffindor House = "Gryffindor"
	HouseSlytherin  House = "Slytherin"
	HouseRavenclaw  House = "Ravenclaw"
	HouseHufflepuff House = "Hufflepuff"
	HouseNeutral    House = "Neutral"
)

// Houses lists every valid House in schema order
var Houses = []House{HouseGryffindor, HouseSlytherin, HouseRavenclaw, HouseHufflepuff, HouseNeutral}

// Rarity is the card rarity
type Rarity string

// Rarities accepted by the schema
const (
	RarityCommon   Rarity = "Common"
	RarityUncommon Rarity = "Uncommon"
	RarityRare     Rarity = "Rare"
	RarityMythic   Rarity = "Mythic"
)

// Rarities lists every valid Rarity in schema order
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityMythic}

// BloodStatus is the optional ancestry classification
type BloodStatus string

// Blood statuses accepted by the schema
const (
	BloodPure      BloodStatus = "Pure-blood"
	BloodHalf      BloodStatus = "Half-blood"
	BloodMuggle    BloodStatus = "Muggle-born"
	BloodSquib     BloodStatus = "Squib"
	BloodHalfBreed BloodStatus = "Half-breed"
	BloodUnknown   BloodStatus = "Unknown"
)

// BloodStatuses lists every valid BloodStatus in schema order
var BloodStatuses = []BloodStatus{BloodPure, BloodHalf, BloodMuggle, BloodSquib, BloodHalfBreed, BloodUnknown}

// Stat and danger bounds
const (
	StatMin        = 0
	StatMax        = 100
	DangerLevelMin = 1
	DangerLevelMax = 10

	MinAbilities = 2
	MaxAbilities = 3
)

// Danger assessment labels shown next to the threat meter
const (
	DangerLabelExtreme = "EXTREME CAUTION"
	DangerLabelMonitor = "MONITOR CLOSELY"
	DangerLabelLow     = "LOW RISK"
)

// StatBlock holds the five card attributes, each in [0,100]
type StatBlock struct {
	Magic        int `json:"magic"`
	Courage      int `json:"courage"`
	Intelligence int `json:"intelligence"`
	Cunning      int `json:"cunning"`
	Loyalty      int `json:"loyalty"`
}

// Ability is a single card ability
type Ability struct {
	Name        string `json:"name"`
	Cost        string `json:"cost"` // Mana notation, e.g. "2RR"
	Description string `json:"description"`
}

// Wand describes the character's wand
type Wand struct {
	Wood        string `json:"wood"`
	Core        string `json:"core"`
	Length      string `json:"length"`
	Flexibility string `json:"flexibility"`
}

// CharacterRecord is the validated character sheet produced by text generation.
// Records are built once per generation and never mutated afterwards.
type CharacterRecord struct {
	// Required card fields
	Name      string    `json:"name"`
	House     House     `json:"house"`
	Type      string    `json:"type"`
	HP        int       `json:"hp"`
	Rarity    Rarity    `json:"rarity"`
	Stats     StatBlock `json:"stats"`
	Abilities []Ability `json:"abilities"`

	// Card extras
	SubType        string `json:"subType,omitempty"`
	SignatureSpell string `json:"signatureSpell,omitempty"`
	FlavorText     string `json:"flavorText,omitempty"`

	// Identity & lore
	Wand        *Wand       `json:"wand,omitempty"`
	Patronus    string      `json:"patronus,omitempty"`
	Boggart     string      `json:"boggart,omitempty"`
	BloodStatus BloodStatus `json:"bloodStatus,omitempty"`
	BestSubject string      `json:"bestSubject,omitempty"`
	Titles      []string    `json:"titles,omitempty"`

	// Deep lore
	Animagus       *string  `json:"animagus,omitempty"`
	Familiar       string   `json:"familiar,omitempty"`
	MirrorOfErised string   `json:"mirrorOfErised,omitempty"`
	Amortentia     []string `json:"amortentia,omitempty"`
	DangerLevel    *int     `json:"dangerLevel,omitempty"`
	Affiliations   []string `json:"affiliations,omitempty"`

	// Profile
	Biography  string   `json:"biography,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	Equipment  []string `json:"equipment,omitempty"`

	// Only used as input to image generation
	VisualDescription string `json:"visualDescription,omitempty"`
}

// DangerAssessment returns the Ministry threat label for the record's danger level.
// Records without a danger level are treated as low risk.
func (r *CharacterRecord) DangerAssessment() string {
	if r == nil || r.DangerLevel == nil {
		return DangerLabelLow
	}
	switch level := *r.DangerLevel; {
	case level >= 7:
		return DangerLabelExtreme
	case level >= 4:
		return DangerLabelMonitor
	default:
		return DangerLabelLow
	}
}

// IsValidHouse reports whether h is one of the declared houses
func IsValidHouse(h House) bool {
	for _, v := range Houses {
		if v == h {
			return true
		}
	}
	return false
}

// IsValidRarity reports whether r is one of the declared rarities
func IsValidRarity(r Rarity) bool {
	for _, v := range Rarities {
		if v == r {
			return true
		}
	}
	return false
}

// IsValidBloodStatus reports whether b is one of the declared blood statuses
func IsValidBloodStatus(b BloodStatus) bool {
	for _, v := range BloodStatuses {
		if v == b {
			return true
		}
	}
	return false
}
