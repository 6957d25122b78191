package layout

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a scene descriptor (JSON or YAML, by extension) from path.
func Load(path string) (Scene, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scene{}, fmt.Errorf("error reading layout file: %w", err)
	}
	var scene Scene
	if err := v.Unmarshal(&scene); err != nil {
		return Scene{}, fmt.Errorf("error decoding layout file: %w", err)
	}
	return scene, nil
}
