// Package catalog holds the static assessment taxonomy: sections, areas,
// questions, and the progression knowledge base. A Catalog is built once
// at startup and never mutated, so it is safe to share across requests
// without locking.
package catalog

import (
	"fmt"
	"sort"
)

type Catalog struct {
	sections []*Section
	areas    []*Area

	sectionsByID  map[string]*Section
	areasByID     map[string]*Area
	questionsByID map[string]*Question

	areasBySection  map[string][]*Area
	questionsByArea map[string][]*Question

	// progression rules keyed by area id, then target level
	rules map[string]map[int]*ProgressionRule

	activeQuestions int
}

// New assembles and validates a catalog from flat record lists. Records
// are re-sorted by display order; input order does not matter.
func New(sections []*Section, areas []*Area, questions []*Question, rules []*ProgressionRule) (*Catalog, error) {
	c := &Catalog{
		sectionsByID:    make(map[string]*Section, len(sections)),
		areasByID:       make(map[string]*Area, len(areas)),
		questionsByID:   make(map[string]*Question, len(questions)),
		areasBySection:  make(map[string][]*Area),
		questionsByArea: make(map[string][]*Question),
		rules:           make(map[string]map[int]*ProgressionRule),
	}

	for _, s := range sections {
		if s.ID == "" {
			return nil, fmt.Errorf("section with empty id")
		}
		if _, dup := c.sectionsByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate section id %q", s.ID)
		}
		c.sectionsByID[s.ID] = s
		c.sections = append(c.sections, s)
	}
	sort.SliceStable(c.sections, func(i, j int) bool {
		return c.sections[i].DisplayOrder < c.sections[j].DisplayOrder
	})

	for _, a := range areas {
		if a.ID == "" {
			return nil, fmt.Errorf("area with empty id")
		}
		if _, dup := c.areasByID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate area id %q", a.ID)
		}
		if _, ok := c.sectionsByID[a.SectionID]; !ok {
			return nil, fmt.Errorf("area %q references unknown section %q", a.ID, a.SectionID)
		}
		c.areasByID[a.ID] = a
		c.areasBySection[a.SectionID] = append(c.areasBySection[a.SectionID], a)
	}
	for id := range c.areasBySection {
		as := c.areasBySection[id]
		sort.SliceStable(as, func(i, j int) bool {
			return as[i].DisplayOrder < as[j].DisplayOrder
		})
	}

	// flat area list in (section order, area order)
	for _, s := range c.sections {
		c.areas = append(c.areas, c.areasBySection[s.ID]...)
	}

	for _, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question with empty id")
		}
		if _, dup := c.questionsByID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if _, ok := c.areasByID[q.AreaID]; !ok {
			return nil, fmt.Errorf("question %q references unknown area %q", q.ID, q.AreaID)
		}
		c.questionsByID[q.ID] = q
		c.questionsByArea[q.AreaID] = append(c.questionsByArea[q.AreaID], q)
		if q.Active {
			c.activeQuestions++
		}
	}
	for id := range c.questionsByArea {
		qs := c.questionsByArea[id]
		sort.SliceStable(qs, func(i, j int) bool {
			return qs[i].DisplayOrder < qs[j].DisplayOrder
		})
	}

	for _, r := range rules {
		if _, ok := c.areasByID[r.AreaID]; !ok {
			return nil, fmt.Errorf("progression rule references unknown area %q", r.AreaID)
		}
		if r.TargetLevel < 2 || r.TargetLevel > 4 {
			return nil, fmt.Errorf("progression rule for area %q has target level %d, want 2-4", r.AreaID, r.TargetLevel)
		}
		byLevel, ok := c.rules[r.AreaID]
		if !ok {
			byLevel = make(map[int]*ProgressionRule, 3)
			c.rules[r.AreaID] = byLevel
		}
		if _, dup := byLevel[r.TargetLevel]; dup {
			return nil, fmt.Errorf("duplicate progression rule for area %q level %d", r.AreaID, r.TargetLevel)
		}
		byLevel[r.TargetLevel] = r
	}

	return c, nil
}

// Sections returns all sections in display order.
func (c *Catalog) Sections() []*Section {
	return c.sections
}

// Section looks up a section by id.
func (c *Catalog) Section(id string) (*Section, bool) {
	s, ok := c.sectionsByID[id]
	return s, ok
}

// Areas returns a section's areas in display order.
func (c *Catalog) Areas(sectionID string) []*Area {
	return c.areasBySection[sectionID]
}

// AllAreas returns every area ordered by section display order, then
// area display order. This is the canonical iteration order for scoring
// and recommendations.
func (c *Catalog) AllAreas() []*Area {
	return c.areas
}

// Area looks up an area by id.
func (c *Catalog) Area(id string) (*Area, bool) {
	a, ok := c.areasByID[id]
	return a, ok
}

// Questions returns an area's questions in display order. With
// activeOnly set, inactive questions are filtered out.
func (c *Catalog) Questions(areaID string, activeOnly bool) []*Question {
	qs := c.questionsByArea[areaID]
	if !activeOnly {
		return qs
	}
	active := make([]*Question, 0, len(qs))
	for _, q := range qs {
		if q.Active {
			active = append(active, q)
		}
	}
	return active
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (*Question, bool) {
	q, ok := c.questionsByID[id]
	return q, ok
}

// Rules returns an area's progression rules ordered by target level.
func (c *Catalog) Rules(areaID string) []*ProgressionRule {
	byLevel := c.rules[areaID]
	out := make([]*ProgressionRule, 0, len(byLevel))
	for level := 2; level <= 4; level++ {
		if r, ok := byLevel[level]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Rule looks up the progression rule for one area and target level.
func (c *Catalog) Rule(areaID string, targetLevel int) (*ProgressionRule, bool) {
	r, ok := c.rules[areaID][targetLevel]
	return r, ok
}

// ActiveQuestionCount is the progress denominator: the number of active
// questions across the whole catalog.
func (c *Catalog) ActiveQuestionCount() int {
	return c.activeQuestions
}

// SectionOf resolves the owning section for an area id.
func (c *Catalog) SectionOf(areaID string) (*Section, bool) {
	a, ok := c.areasByID[areaID]
	if !ok {
		return nil, false
	}
	s, ok := c.sectionsByID[a.SectionID]
	return s, ok
}
