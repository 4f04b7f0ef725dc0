package emotion

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule binds a label to the keywords that indicate it.
type Rule struct {
	Label    Label    `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// Rules is ordered: the first rule containing a token decides the label.
type Rules []Rule

func DefaultRules() Rules {
	return Rules{
		{Label: Anxiety, Keywords: []string{"掉牙", "迷路", "追趕", "失敗", "遲到", "焦慮", "緊張"}},
		{Label: Fear, Keywords: []string{"蛇", "黑暗", "鬼", "墜落", "死亡", "害怕"}},
		{Label: Joy, Keywords: []string{"飛翔", "陽光", "花", "笑", "海邊", "快樂", "開心", "幸福"}},
		{Label: Sadness, Keywords: []string{"哭", "下雨", "失戀", "分手", "孤單", "悲傷", "痛苦", "失落"}},
		{Label: Surprise, Keywords: []string{"中獎", "懷孕", "變身", "寶藏", "意外"}},
		{Label: Love, Keywords: []string{"擁抱", "親吻", "戀人", "家人", "朋友"}},
	}
}

type rulesFile struct {
	Rules Rules `yaml:"rules"`
}

// LoadRules reads a YAML rule table. Labels outside the vocabulary are rejected.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s has no rules", path)
	}
	for _, r := range f.Rules {
		if r.Label == Unknown || !Valid(r.Label) {
			return nil, fmt.Errorf("rules file %s: unknown label %q", path, r.Label)
		}
	}
	return f.Rules, nil
}

// Lookup returns the label of the first rule containing token.
func (r Rules) Lookup(token string) (Label, bool) {
	for _, rule := range r {
		for _, kw := range rule.Keywords {
			if kw == token {
				return rule.Label, true
			}
		}
	}
	return "", false
}

// Keywords flattens every rule keyword, in table order.
func (r Rules) Keywords() []string {
	var out []string
	for _, rule := range r {
		out = append(out, rule.Keywords...)
	}
	return out
}
