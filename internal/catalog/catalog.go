package catalog

import (
	"math/rand"
	"sync"

	"trainsched/internal/models"
)

// Template is one piece of workout content: a warm-up/main/cooldown structure
// plus baseline duration and load for the session it fills.
type Template struct {
	ID           string
	SessionType  models.SessionType
	MinEquipment models.EquipmentTier
	Warmup       []models.Exercise
	Main         []models.Exercise
	Cooldown     []models.Exercise
	BaseDuration int
	BaseTSS      int
}

// Content materializes the template into a session payload. Exercise slices
// are copied so adjustments to one session never bleed into another.
func (t *Template) Content() models.SessionContent {
	return models.SessionContent{
		TemplateID:   t.ID,
		Warmup:       copyExercises(t.Warmup),
		Main:         copyExercises(t.Main),
		Cooldown:     copyExercises(t.Cooldown),
		EstimatedTSS: t.BaseTSS,
	}
}

func copyExercises(src []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(src))
	copy(out, src)
	return out
}

// Catalog picks content templates for sessions. The production catalog is an
// external content library; this interface is all the scheduler depends on.
type Catalog interface {
	// Pick returns a template for the session type usable with the given
	// equipment, avoiding excluded template ids when possible. Returns nil
	// only when no template of that type exists for the equipment at all.
	Pick(sessionType models.SessionType, equipment models.EquipmentTier, exclude map[string]bool) *Template
}

// Static is the built-in template catalog backed by a fixed table. Template
// choice within the filtered pool is randomized through an injected source so
// tests can pin the seed.
type Static struct {
	mu        sync.Mutex
	rng       *rand.Rand
	templates []*Template
}

// NewStatic creates a catalog over the built-in template table
func NewStatic(rng *rand.Rand) *Static {
	return &Static{rng: rng, templates: builtinTemplates}
}

// equipmentRank orders tiers so a better-equipped athlete can use any
// template requiring less equipment
func equipmentRank(tier models.EquipmentTier) int {
	switch tier {
	case models.EquipmentFullGym:
		return 2
	case models.EquipmentHomeBasic:
		return 1
	default:
		return 0
	}
}

// Pick implements Catalog. When the exclusion filter empties the pool the
// exclusions are dropped and a repeated template is accepted rather than
// failing the whole plan build.
func (c *Static) Pick(sessionType models.SessionType, equipment models.EquipmentTier, exclude map[string]bool) *Template {
	var pool, fallback []*Template
	for _, t := range c.templates {
		if t.SessionType != sessionType {
			continue
		}
		if equipmentRank(t.MinEquipment) > equipmentRank(equipment) {
			continue
		}
		fallback = append(fallback, t)
		if !exclude[t.ID] {
			pool = append(pool, t)
		}
	}

	if len(pool) == 0 {
		pool = fallback
	}
	if len(pool) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return pool[c.rng.Intn(len(pool))]
}
