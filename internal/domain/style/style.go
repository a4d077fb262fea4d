package style

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

// Field limits.
const (
	MaxTitleLength   = 350
	MaxStylistLength = 200
	MaxTagLength     = 100
)

// Attributes is the mutable part of a style as supplied by callers.
// Zero-valued enums fall back to the creation defaults.
type Attributes struct {
	Title            string
	Description      string
	Length           Length
	Texture          Texture
	Thickness        Thickness
	Maintenance      Maintenance
	StylistName      string
	Tags             []string
	ClientPermission bool
}

// Style is the hairstyle aggregate (immutable value object).
type Style struct {
	id               int64
	title            string
	description      string
	length           Length
	texture          Texture
	thickness        Thickness
	maintenance      Maintenance
	stylistName      string
	tags             []string
	clientPermission bool
	createdAt        time.Time
	updatedAt        time.Time
}

// New validates attributes and creates an unsaved Style (ID 0).
// Empty enums default to SHORT / STRAIGHT / FINE / LOW. Tags are trimmed, de-duplicated and sorted.
func New(a Attributes) (Style, error) {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return Style{}, fmt.Errorf("%w: title is required", domain.ErrInvalidStyle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Style{}, fmt.Errorf("%w: title too long (max %d)", domain.ErrInvalidStyle, MaxTitleLength)
	}
	stylist := strings.TrimSpace(a.StylistName)
	if stylist == "" {
		return Style{}, fmt.Errorf("%w: stylist_name is required", domain.ErrInvalidStyle)
	}
	if utf8.RuneCountInString(stylist) > MaxStylistLength {
		return Style{}, fmt.Errorf("%w: stylist_name too long (max %d)", domain.ErrInvalidStyle, MaxStylistLength)
	}

	s := Style{
		title:            title,
		description:      strings.TrimSpace(a.Description),
		length:           orDefault(a.Length, LengthShort),
		texture:          orDefault(a.Texture, TextureStraight),
		thickness:        orDefault(a.Thickness, ThicknessFine),
		maintenance:      orDefault(a.Maintenance, MaintenanceLow),
		stylistName:      stylist,
		clientPermission: a.ClientPermission,
	}
	if !s.length.IsValid() {
		return Style{}, fmt.Errorf("%w: invalid length %q", domain.ErrInvalidStyle, s.length)
	}
	if !s.texture.IsValid() {
		return Style{}, fmt.Errorf("%w: invalid texture %q", domain.ErrInvalidStyle, s.texture)
	}
	if !s.thickness.IsValid() {
		return Style{}, fmt.Errorf("%w: invalid thickness %q", domain.ErrInvalidStyle, s.thickness)
	}
	if !s.maintenance.IsValid() {
		return Style{}, fmt.Errorf("%w: invalid maintenance %q", domain.ErrInvalidStyle, s.maintenance)
	}

	tags, err := NormalizeTags(a.Tags)
	if err != nil {
		return Style{}, err
	}
	s.tags = tags
	return s, nil
}

// Reconstruct creates a Style without validation (storage hydration).
func Reconstruct(id int64, a Attributes, createdAt, updatedAt time.Time) Style {
	tags := slices.Clone(a.Tags)
	slices.Sort(tags)
	return Style{
		id:               id,
		title:            a.Title,
		description:      a.Description,
		length:           a.Length,
		texture:          a.Texture,
		thickness:        a.Thickness,
		maintenance:      a.Maintenance,
		stylistName:      a.StylistName,
		tags:             tags,
		clientPermission: a.ClientPermission,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// NormalizeTags trims, validates, de-duplicates and sorts tag names.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("%w: tag name is required", domain.ErrInvalidStyle)
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			return nil, fmt.Errorf("%w: tag %q too long (max %d)", domain.ErrInvalidStyle, t, MaxTagLength)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

// ID returns the store-assigned identifier (0 before the first save).
func (s Style) ID() int64 { return s.id }

// Title returns the style title.
func (s Style) Title() string { return s.title }

// Description returns the free-text description.
func (s Style) Description() string { return s.description }

// Length returns the hair length.
func (s Style) Length() Length { return s.length }

// Texture returns the hair texture.
func (s Style) Texture() Texture { return s.texture }

// Thickness returns the strand thickness.
func (s Style) Thickness() Thickness { return s.thickness }

// Maintenance returns the upkeep level.
func (s Style) Maintenance() Maintenance { return s.maintenance }

// StylistName returns the author label.
func (s Style) StylistName() string { return s.stylistName }

// Tags returns the sorted tag names.
func (s Style) Tags() []string { return slices.Clone(s.tags) }

// ClientPermission reports whether the client agreed to publication.
func (s Style) ClientPermission() bool { return s.clientPermission }

// CreatedAt returns the creation timestamp.
func (s Style) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last modification timestamp.
func (s Style) UpdatedAt() time.Time { return s.updatedAt }

// Attributes returns a copy of the mutable attributes.
func (s Style) Attributes() Attributes {
	return Attributes{
		Title:            s.title,
		Description:      s.description,
		Length:           s.length,
		Texture:          s.texture,
		Thickness:        s.thickness,
		Maintenance:      s.maintenance,
		StylistName:      s.stylistName,
		Tags:             slices.Clone(s.tags),
		ClientPermission: s.clientPermission,
	}
}

// Attribute returns the raw code of a categorical attribute by name.
func (s Style) Attribute(name string) string {
	switch name {
	case AttrLength:
		return string(s.length)
	case AttrTexture:
		return string(s.texture)
	case AttrThickness:
		return string(s.thickness)
	case AttrMaintenance:
		return string(s.maintenance)
	}
	return ""
}
