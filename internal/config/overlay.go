// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"hiringscan-engine/internal/tag"
)

type TagsFile struct {
	Tags tag.Rules `yaml:"tags"`
}

// OverlayTags replaces cfg.Tags with the rules in tagsPath when that file
// exists and lists at least one rule.
func OverlayTags(cfg *Config, tagsPath string) error {
	b, err := os.ReadFile(tagsPath)
	if err != nil {
		// Missing tags file should not kill startup
		return nil
	}

	var tf TagsFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return err
	}

	if len(tf.Tags) > 0 {
		cfg.Tags = tf.Tags
	}
	return nil
}
