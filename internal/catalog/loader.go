package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/afs-framework/backend/pkg/logger"
)

const (
	catalogFile      = "catalog.yaml"
	progressionsFile = "progressions.yaml"
)

// Load reads the seed files from dir and builds the catalog. Display
// order follows file order, so seeds stay renumber-free when areas are
// inserted.
func Load(dir string) (*Catalog, error) {
	var cf catalogSeed
	if err := readSeed(filepath.Join(dir, catalogFile), &cf); err != nil {
		return nil, err
	}

	var pf progressionSeed
	if err := readSeed(filepath.Join(dir, progressionsFile), &pf); err != nil {
		return nil, err
	}

	var (
		sections  []*Section
		areas     []*Area
		questions []*Question
	)

	for si, sf := range cf.Sections {
		sections = append(sections, &Section{
			ID:           sf.ID,
			Name:         sf.Name,
			Description:  sf.Description,
			DisplayOrder: si + 1,
		})

		for ai, af := range sf.Areas {
			areas = append(areas, &Area{
				ID:             af.ID,
				SectionID:      sf.ID,
				Name:           af.Name,
				Description:    af.Description,
				DisplayOrder:   ai + 1,
				TimelineL1ToL2: af.Timelines.L1ToL2,
				TimelineL2ToL3: af.Timelines.L2ToL3,
				TimelineL3ToL4: af.Timelines.L3ToL4,
			})

			for qi, qf := range af.Questions {
				if qf.Text == "" {
					return nil, fmt.Errorf("question %q has no text", qf.ID)
				}
				if len(qf.Levels) != 4 {
					return nil, fmt.Errorf("question %q has %d level descriptions, want 4", qf.ID, len(qf.Levels))
				}
				q := &Question{
					ID:           qf.ID,
					AreaID:       af.ID,
					Text:         qf.Text,
					DisplayOrder: qi + 1,
					Active:       !qf.Inactive,
				}
				copy(q.LevelDescriptions[:], qf.Levels)
				questions = append(questions, q)
			}
		}
	}

	var rules []*ProgressionRule
	for _, rf := range pf.Progressions {
		rule := &ProgressionRule{
			AreaID:         rf.Area,
			TargetLevel:    rf.TargetLevel,
			Prerequisites:  rf.Prerequisites,
			SuccessMetrics: rf.SuccessMetrics,
			Timeline:       rf.Timeline,
			CommonPitfall:  rf.CommonPitfall,
		}
		for _, gf := range rf.ActionItems {
			rule.ActionItems = append(rule.ActionItems, ActionGroup{
				Category: gf.Category,
				Items:    gf.Items,
			})
		}
		rules = append(rules, rule)
	}

	c, err := New(sections, areas, questions, rules)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog seed: %w", err)
	}

	logger.Info("Catalog loaded",
		zap.String("dir", dir),
		zap.Int("sections", len(sections)),
		zap.Int("areas", len(areas)),
		zap.Int("questions", len(questions)),
		zap.Int("progression_rules", len(rules)),
	)

	return c, nil
}

func readSeed(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Seed file shapes. Areas and questions nest under their parents so the
// files read like the questionnaire itself.

type catalogSeed struct {
	Sections []sectionSeed `yaml:"sections"`
}

type sectionSeed struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Areas       []areaSeed `yaml:"areas"`
}

type areaSeed struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Timelines   struct {
		L1ToL2 string `yaml:"l1_to_l2"`
		L2ToL3 string `yaml:"l2_to_l3"`
		L3ToL4 string `yaml:"l3_to_l4"`
	} `yaml:"timelines"`
	Questions []questionSeed `yaml:"questions"`
}

type questionSeed struct {
	ID       string   `yaml:"id"`
	Text     string   `yaml:"text"`
	Levels   []string `yaml:"levels"`
	Inactive bool     `yaml:"inactive"`
}

type progressionSeed struct {
	Progressions []progressionRuleSeed `yaml:"progressions"`
}

type progressionRuleSeed struct {
	Area           string            `yaml:"area"`
	TargetLevel    int               `yaml:"target_level"`
	Prerequisites  []string          `yaml:"prerequisites"`
	ActionItems    []actionGroupSeed `yaml:"action_items"`
	SuccessMetrics []string          `yaml:"success_metrics"`
	Timeline       string            `yaml:"timeline"`
	CommonPitfall  string            `yaml:"common_pitfall"`
}

type actionGroupSeed struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}
