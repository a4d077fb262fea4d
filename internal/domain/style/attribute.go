package style

import "fmt"

// Length is the categorical hair length.
type Length string

// Length values.
const (
	LengthShort  Length = "SHORT"
	LengthMedium Length = "MEDIUM"
	LengthLong   Length = "LONG"
)

// Texture is the categorical hair texture.
type Texture string

// Texture values.
const (
	TextureStraight Texture = "STRAIGHT"
	TextureWavy     Texture = "WAVY"
	TextureCurly    Texture = "CURLY"
	TextureCoily    Texture = "COILY"
)

// Thickness is the categorical strand thickness.
type Thickness string

// Thickness values.
const (
	ThicknessFine   Thickness = "FINE"
	ThicknessMedium Thickness = "MEDIUM"
	ThicknessThick  Thickness = "THICK"
)

// Maintenance is the categorical upkeep level.
type Maintenance string

// Maintenance values.
const (
	MaintenanceLow    Maintenance = "LOW"
	MaintenanceMedium Maintenance = "MEDIUM"
	MaintenanceHigh   Maintenance = "HIGH"
)

var (
	lengthLabels = map[Length]string{
		LengthShort: "Short", LengthMedium: "Medium", LengthLong: "Long",
	}
	textureLabels = map[Texture]string{
		TextureStraight: "Straight", TextureWavy: "Wavy", TextureCurly: "Curly", TextureCoily: "Coily",
	}
	thicknessLabels = map[Thickness]string{
		ThicknessFine: "Fine", ThicknessMedium: "Medium", ThicknessThick: "Thick",
	}
	maintenanceLabels = map[Maintenance]string{
		MaintenanceLow: "Low", MaintenanceMedium: "Medium", MaintenanceHigh: "High",
	}
)

// IsValid reports whether l is a known length.
func (l Length) IsValid() bool { _, ok := lengthLabels[l]; return ok }

// Label returns the human-readable display value.
func (l Length) Label() string { return lengthLabels[l] }

// IsValid reports whether t is a known texture.
func (t Texture) IsValid() bool { _, ok := textureLabels[t]; return ok }

// Label returns the human-readable display value.
func (t Texture) Label() string { return textureLabels[t] }

// IsValid reports whether t is a known thickness.
func (t Thickness) IsValid() bool { _, ok := thicknessLabels[t]; return ok }

// Label returns the human-readable display value.
func (t Thickness) Label() string { return thicknessLabels[t] }

// IsValid reports whether m is a known maintenance level.
func (m Maintenance) IsValid() bool { _, ok := maintenanceLabels[m]; return ok }

// Label returns the human-readable display value.
func (m Maintenance) Label() string { return maintenanceLabels[m] }

// Categorical attribute names, shared by metadata, index TAG fields and search filters.
const (
	AttrLength      = "length"
	AttrTexture     = "texture"
	AttrThickness   = "thickness"
	AttrMaintenance = "maintenance"
)

// CategoricalAttributes lists the filterable enum attributes in display order.
var CategoricalAttributes = []string{AttrLength, AttrTexture, AttrThickness, AttrMaintenance}

// ValidateAttribute checks that value is a known code for the categorical attribute.
func ValidateAttribute(attr, value string) error {
	var ok bool
	switch attr {
	case AttrLength:
		ok = Length(value).IsValid()
	case AttrTexture:
		ok = Texture(value).IsValid()
	case AttrThickness:
		ok = Thickness(value).IsValid()
	case AttrMaintenance:
		ok = Maintenance(value).IsValid()
	default:
		return fmt.Errorf("unknown attribute %q", attr)
	}
	if !ok {
		return fmt.Errorf("invalid %s value %q", attr, value)
	}
	return nil
}
