package pipeline

import "strings"

// HeicCapability is the HEIC decode strategy available to this process.
// It is resolved once at startup and never changes afterwards.
type HeicCapability int

const (
	HeicNone HeicCapability = iota
	HeicNative
	HeicFallbackArray
)

func (c HeicCapability) String() string {
	switch c {
	case HeicNative:
		return "native"
	case HeicFallbackArray:
		return "fallback-array"
	default:
		return "none"
	}
}

// Method names the decoder backing the capability.
func (c HeicCapability) Method() string {
	switch c {
	case HeicNative:
		return "libvips"
	case HeicFallbackArray:
		return "libheif-wasm"
	default:
		return ""
	}
}

// fallbackHeicAvailable is a variable so tests can simulate a build without it.
var fallbackHeicAvailable = func() bool { return true }

// ResolveHeicCapability picks the strategy for preference (auto, native, fallback or none).
func ResolveHeicCapability(preference string) HeicCapability {
	return resolveHeicCapability(preference, nativeHeicAvailable(), fallbackHeicAvailable())
}

func resolveHeicCapability(preference string, native, fallback bool) HeicCapability {
	order := []HeicCapability{HeicNative, HeicFallbackArray}
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "none", "off", "disabled":
		return HeicNone
	case "fallback", "fallback-array", "array":
		order = []HeicCapability{HeicFallbackArray}
	}

	for _, c := range order {
		switch {
		case c == HeicNative && native:
			return HeicNative
		case c == HeicFallbackArray && fallback:
			return HeicFallbackArray
		}
	}
	return HeicNone
}
