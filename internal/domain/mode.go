package domain

// SchemaMode tags an entry with the emotional or behavioural pattern it
// records. Entries persist the raw string value.
type SchemaMode string

const (
	ModeVulnerableChild    SchemaMode = "Vulnerable Child"
	ModeAngryChild         SchemaMode = "Angry Child"
	ModeEnragedChild       SchemaMode = "Enraged Child"
	ModeImpulsiveChild     SchemaMode = "Impulsive Child"
	ModeUndisciplinedChild SchemaMode = "Undisciplined Child"

	ModeCompliantSurrenderer          SchemaMode = "Compliant Surrenderer"
	ModeDetachedProtector             SchemaMode = "Detached Protector"
	ModeDetachedSelfSoother           SchemaMode = "Detached Self-Soother"
	ModeAngryProtector                SchemaMode = "Angry Protector"
	ModeSelfAggrandizer               SchemaMode = "Self-Aggrandizer"
	ModeBullyAndAttack                SchemaMode = "Bully and Attack"
	ModePerfectionisticOvercontroller SchemaMode = "Perfectionistic Overcontroller"

	ModePunitiveParent  SchemaMode = "Punitive Parent"
	ModeDemandingParent SchemaMode = "Demanding Parent"

	ModeHealthyAdult SchemaMode = "Healthy Adult"
	ModeHappyChild   SchemaMode = "Happy Child"
)

// DefaultMode is used when a stored mode string is not recognised.
const DefaultMode = ModeHealthyAdult

// SchemaModeCategory groups modes for presentation.
type SchemaModeCategory string

const (
	CategoryChild   SchemaModeCategory = "Child"
	CategoryCoping  SchemaModeCategory = "Coping"
	CategoryParent  SchemaModeCategory = "Parent"
	CategoryHealthy SchemaModeCategory = "Healthy"
)

var categoryOrder = []SchemaModeCategory{
	CategoryChild,
	CategoryCoping,
	CategoryParent,
	CategoryHealthy,
}

// modesByCategory is the single source of the taxonomy. A new mode must be
// added here; the reverse lookup is derived from it at init.
var modesByCategory = map[SchemaModeCategory][]SchemaMode{
	CategoryChild: {
		ModeVulnerableChild,
		ModeAngryChild,
		ModeEnragedChild,
		ModeImpulsiveChild,
		ModeUndisciplinedChild,
	},
	CategoryCoping: {
		ModeCompliantSurrenderer,
		ModeDetachedProtector,
		ModeDetachedSelfSoother,
		ModeAngryProtector,
		ModeSelfAggrandizer,
		ModeBullyAndAttack,
		ModePerfectionisticOvercontroller,
	},
	CategoryParent: {
		ModePunitiveParent,
		ModeDemandingParent,
	},
	CategoryHealthy: {
		ModeHealthyAdult,
		ModeHappyChild,
	},
}

var (
	categoryByMode map[SchemaMode]SchemaModeCategory
	allModes       []SchemaMode
)

func init() {
	categoryByMode = make(map[SchemaMode]SchemaModeCategory)
	for _, cat := range categoryOrder {
		for _, m := range modesByCategory[cat] {
			if prev, dup := categoryByMode[m]; dup {
				panic("schema mode " + string(m) + " listed under " + string(prev) + " and " + string(cat))
			}
			categoryByMode[m] = cat
			allModes = append(allModes, m)
		}
	}
}

// AllModes returns every mode, grouped by category in display order.
func AllModes() []SchemaMode {
	out := make([]SchemaMode, len(allModes))
	copy(out, allModes)
	return out
}

// Categories returns the four categories in display order.
func Categories() []SchemaModeCategory {
	out := make([]SchemaModeCategory, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ModesIn returns the modes of one category.
func ModesIn(cat SchemaModeCategory) []SchemaMode {
	modes := modesByCategory[cat]
	out := make([]SchemaMode, len(modes))
	copy(out, modes)
	return out
}

// CategoryOf returns the category of a known mode. ok is false only for
// values outside the taxonomy.
func CategoryOf(m SchemaMode) (cat SchemaModeCategory, ok bool) {
	cat, ok = categoryByMode[m]
	return cat, ok
}

// Category is CategoryOf for modes already known to be valid.
func (m SchemaMode) Category() SchemaModeCategory {
	return categoryByMode[m]
}

// Valid reports whether m is part of the taxonomy.
func (m SchemaMode) Valid() bool {
	_, ok := categoryByMode[m]
	return ok
}

func (m SchemaMode) String() string {
	return string(m)
}

// ParseSchemaMode looks up a raw stored value. An unknown value is reported
// through ok, not as an error.
func ParseSchemaMode(s string) (SchemaMode, bool) {
	m := SchemaMode(s)
	if !m.Valid() {
		return "", false
	}
	return m, true
}

// ModeOrDefault parses s and falls back to DefaultMode.
func ModeOrDefault(s string) SchemaMode {
	if m, ok := ParseSchemaMode(s); ok {
		return m
	}
	return DefaultMode
}
