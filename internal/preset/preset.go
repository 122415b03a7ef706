package preset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned by Lookup when a name matches no compression level.
var ErrUnknownLevel = errors.New("unknown compression level")

// Compression level labels, in menu order.
const (
	LevelExtreme  = "Ekstrem"
	LevelLow      = "Rendah"
	LevelMedium   = "Sedang"
	LevelHigh     = "Tinggi"
	LevelPrepress = "Sangat Tinggi"
)

// DefaultLevel is the level preselected when the user has not chosen one.
const DefaultLevel = LevelMedium

// Profile is the set of Ghostscript flags realizing one compression level.
// Exactly one of Named and Flags is set.
type Profile struct {
	// Named is a -dPDFSETTINGS profile name such as "/ebook".
	Named string
	// Flags is an explicit, ordered flag list used instead of a named profile.
	Flags []string
}

// IsNamed reports whether the profile is a single named Ghostscript preset.
func (p Profile) IsNamed() bool {
	return p.Named != ""
}

// Args returns the command-line flags for the profile. The returned slice is a copy.
func (p Profile) Args() []string {
	if p.IsNamed() {
		return []string{"-dPDFSETTINGS=" + p.Named}
	}
	return append([]string(nil), p.Flags...)
}

// Level describes one entry of the compression level menu.
type Level struct {
	Label       string `json:"label"`
	Alias       string `json:"alias"`
	Description string `json:"description"`
	profile     Profile
}

// Profile returns the flags used for the level.
func (l Level) Profile() Profile {
	return Profile{Named: l.profile.Named, Flags: append([]string(nil), l.profile.Flags...)}
}

// extremeFlags starts from /screen and overrides the image and font settings.
var extremeFlags = []string{
	"-dPDFSETTINGS=/screen",
	"-dColorImageResolution=72",
	"-dGrayImageResolution=72",
	"-dMonoImageResolution=72",
	"-dDownsampleColorImages=true",
	"-dDownsampleGrayImages=true",
	"-dDownsampleMonoImages=true",
	"-dColorImageDownsampleType=/Bicubic",
	"-dGrayImageDownsampleType=/Bicubic",
	"-dMonoImageDownsampleType=/Bicubic",
	"-dConvertCMYKImagesToRGB=true",
	"-dDetectDuplicateImages=true",
	"-dCompressFonts=true",
	"-dSubsetFonts=true",
	"-dOptimize=true",
}

var levels = []Level{
	{
		Label:       LevelExtreme,
		Alias:       "extreme",
		Description: "Perkiraan kompresi 70-95%",
		profile:     Profile{Flags: extremeFlags},
	},
	{
		Label:       LevelLow,
		Alias:       "low",
		Description: "Kompresi Tinggi, ~60-85%",
		profile:     Profile{Named: "/screen"},
	},
	{
		Label:       LevelMedium,
		Alias:       "medium",
		Description: "Seimbang, ~40-70%",
		profile:     Profile{Named: "/ebook"},
	},
	{
		Label:       LevelHigh,
		Alias:       "high",
		Description: "Kualitas Cetak, ~10-30%",
		profile:     Profile{Named: "/printer"},
	},
	{
		Label:       LevelPrepress,
		Alias:       "prepress",
		Description: "Prepress, ~0-15%",
		profile:     Profile{Named: "/prepress"},
	},
}

// Levels returns all compression levels in menu order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// Resolve maps a level label to its profile. Labels come from a fixed menu,
// so an unknown label is a caller bug and panics.
func Resolve(label string) Profile {
	for _, l := range levels {
		if l.Label == label {
			return l.Profile()
		}
	}
	panic(fmt.Sprintf("preset: unknown compression level %q", label))
}

// Lookup finds a level by label or alias, ignoring case and surrounding space.
func Lookup(name string) (Level, error) {
	name = strings.TrimSpace(name)
	for _, l := range levels {
		if strings.EqualFold(l.Label, name) || strings.EqualFold(l.Alias, name) {
			return l, nil
		}
	}
	return Level{}, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownLevel, name, strings.Join(names(), ", "))
}

func names() []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Alias)
	}
	return out
}
