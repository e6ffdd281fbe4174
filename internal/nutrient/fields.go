package nutrient

// Field identifies one entry of a Profile.
type Field int

const (
	Calories Field = iota
	Protein
	Carbs
	CarbsSugar
	CarbsSugarGlucose
	CarbsSugarFructose
	CarbsStarch
	Fiber
	Fat
	FatSaturated
	FatMono
	FatPoly
	FatOmega3
	FatOmega6
	FatTrans
	Sodium

	VitaminA
	VitaminB1
	VitaminB2
	VitaminB3
	VitaminB5
	VitaminB6
	VitaminB7
	VitaminB9
	VitaminB12
	VitaminC
	VitaminD
	VitaminE
	VitaminK

	Calcium
	Magnesium
	Potassium
	Phosphorus
	Iron
	Zinc
	Copper
	Iodine
	Selenium
	Manganese
	Chromium
	Molybdenum

	Caffeine
	Alcohol

	numFields
)

type fieldInfo struct {
	key  string
	unit string
}

var fieldTable = [numFields]fieldInfo{
	Calories:           {"calories", "kcal"},
	Protein:            {"protein", "g"},
	Carbs:              {"carbs", "g"},
	CarbsSugar:         {"carbs_sugar", "g"},
	CarbsSugarGlucose:  {"carbs_sugar_glucose", "g"},
	CarbsSugarFructose: {"carbs_sugar_fructose", "g"},
	CarbsStarch:        {"carbs_starch", "g"},
	Fiber:              {"fiber", "g"},
	Fat:                {"fat", "g"},
	FatSaturated:       {"fat_saturated", "g"},
	FatMono:            {"fat_mono", "g"},
	FatPoly:            {"fat_poly", "g"},
	FatOmega3:          {"fat_omega3", "g"},
	FatOmega6:          {"fat_omega6", "g"},
	FatTrans:           {"fat_trans", "g"},
	Sodium:             {"sodium", "mg"},
	VitaminA:           {"vitamin_a", "µg"},
	VitaminB1:          {"vitamin_b1", "mg"},
	VitaminB2:          {"vitamin_b2", "mg"},
	VitaminB3:          {"vitamin_b3", "mg"},
	VitaminB5:          {"vitamin_b5", "mg"},
	VitaminB6:          {"vitamin_b6", "mg"},
	VitaminB7:          {"vitamin_b7", "µg"},
	VitaminB9:          {"vitamin_b9", "µg"},
	VitaminB12:         {"vitamin_b12", "µg"},
	VitaminC:           {"vitamin_c", "mg"},
	VitaminD:           {"vitamin_d", "µg"},
	VitaminE:           {"vitamin_e", "mg"},
	VitaminK:           {"vitamin_k", "µg"},
	Calcium:            {"calcium", "mg"},
	Magnesium:          {"magnesium", "mg"},
	Potassium:          {"potassium", "mg"},
	Phosphorus:         {"phosphorus", "mg"},
	Iron:               {"iron", "mg"},
	Zinc:               {"zinc", "mg"},
	Copper:             {"copper", "mg"},
	Iodine:             {"iodine", "µg"},
	Selenium:           {"selenium", "µg"},
	Manganese:          {"manganese", "mg"},
	Chromium:           {"chromium", "µg"},
	Molybdenum:         {"molybdenum", "µg"},
	Caffeine:           {"caffeine", "mg"},
	Alcohol:            {"alcohol", "g"},
}

var fieldsByKey = func() map[string]Field {
	m := make(map[string]Field, numFields)
	for f := Field(0); f < numFields; f++ {
		m[fieldTable[f].key] = f
	}
	return m
}()

// Fields returns every profile field in canonical order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// String returns the snake_case key used in stored nutrient blobs.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldTable[f].key
}

// Unit returns the measurement unit of the field.
func (f Field) Unit() string {
	if f < 0 || f >= numFields {
		return ""
	}
	return fieldTable[f].unit
}

// ParseField looks a field up by its snake_case key.
func ParseField(key string) (Field, bool) {
	f, ok := fieldsByKey[key]
	return f, ok
}
