package crawl

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// keywordsFile is the YAML shape of a vocabulary override file.
type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywords reads a vocabulary override from a YAML file. The file
// may be either a bare list of stems or a document with a `keywords`
// key. An empty result falls back to DefaultKeywords at call sites.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: read keywords file")
	}

	var bare []string
	if err := yaml.Unmarshal(data, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	var doc keywordsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "crawl: parse keywords file")
	}
	return doc.Keywords, nil
}
