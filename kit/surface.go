package kit

import "strings"

// SurfaceMatcher decides whether a mesh node is a customizable surface.
type SurfaceMatcher func(name string) bool

// Fallback surface names. A conforming kit asset must name its paintable
// meshes either with the ClothPrefix or with one of these names.
const (
	ClothPrefix = "Cloth_mesh"

	SurfaceBody      = "Body"
	SurfaceShorts    = "Shorts"
	SurfaceLeftSock  = "LeftSock"
	SurfaceRightSock = "RightSock"
)

// DefaultSurfaces matches the kit asset contract.
var DefaultSurfaces = AnyOf(
	PrefixMatcher(ClothPrefix),
	NameMatcher(SurfaceBody, SurfaceShorts, SurfaceLeftSock, SurfaceRightSock),
)

// PrefixMatcher matches names starting with any of the prefixes.
func PrefixMatcher(prefixes ...string) SurfaceMatcher {
	return func(name string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}
}

// NameMatcher matches exactly the given names.
func NameMatcher(names ...string) SurfaceMatcher {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

// AnyOf matches when at least one matcher does.
func AnyOf(matchers ...SurfaceMatcher) SurfaceMatcher {
	return func(name string) bool {
		for _, m := range matchers {
			if m(name) {
				return true
			}
		}
		return false
	}
}
