package vocab

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Title    string        `yaml:"title"`
	Chapters []yamlChapter `yaml:"chapters"`
}

type yamlChapter struct {
	Chapter any      `yaml:"chapter"`
	Terms   []string `yaml:"terms"`
}

func indexYAML(source string, data []byte) (*Index, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, parseErr(source, "empty document", nil)
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseErr(source, "invalid yaml", err)
	}
	if len(doc.Chapters) == 0 {
		return nil, parseErr(source, "no chapter markers found", nil)
	}
	ix := newIndex(source)
	for i, ch := range doc.Chapters {
		label := strings.TrimSpace(fmt.Sprint(ch.Chapter))
		if ch.Chapter == nil || label == "" {
			return nil, parseErr(source, fmt.Sprintf("chapter %d has no label", i+1), nil)
		}
		if m := chapterPattern.FindStringSubmatch(label); m != nil {
			label = m[1]
		}
		ix.openChapter(label)
		for _, term := range ch.Terms {
			ix.add(label, term)
		}
	}
	return ix, nil
}
