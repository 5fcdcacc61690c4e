package scene

import (
	"fmt"
	"sort"
)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Name accepted by New
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

// builtin pairs each scene with its constructor
var builtin = map[string]struct {
	info SceneInfo
	new  func(width, height int) *Scene
}{
	"default": {
		info: SceneInfo{
			ID:          "default",
			DisplayName: "Default Scene",
			Description: "Spheres on a ground quad under a sky gradient, a sphere light and a point lamp",
		},
		new: NewDefaultScene,
	},
	"cornell": {
		info: SceneInfo{
			ID:          "cornell",
			DisplayName: "Cornell Box",
			Description: "Cornell box with a ceiling quad light and two spheres",
		},
		new: NewCornellScene,
	},
}

// ListScenes returns the built-in scenes sorted by display name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtin))
	for _, b := range builtin {
		scenes = append(scenes, b.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes
}

// Names returns the IDs of the built-in scenes in sorted order
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds and preprocesses the named scene for a width × height image
func New(name string, width, height int) (*Scene, error) {
	b, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q, expected one of %v", name, Names())
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	s := b.new(width, height)
	if err := s.Preprocess(); err != nil {
		return nil, fmt.Errorf("failed to preprocess scene %s: %w", name, err)
	}
	return s, nil
}
