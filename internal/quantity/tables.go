package quantity

// massUnits maps direct mass and volume units to grams. Volumes assume the
// density of water.
var massUnits = map[string]float64{
	"g":          1,
	"gr":         1,
	"gramm":      1,
	"gram":       1,
	"grams":      1,
	"kg":         1000,
	"kilo":       1000,
	"kilogramm":  1000,
	"kilogram":   1000,
	"ml":         1,
	"milliliter": 1,
	"millilitre": 1,
	"l":          1000,
	"liter":      1000,
	"litre":      1000,
}

var pieceUnits = map[string]bool{
	"stück":  true,
	"stueck": true,
	"stk":    true,
	"stk.":   true,
	"st.":    true,
	"piece":  true,
	"pieces": true,
	"pc":     true,
	"pcs":    true,
	"x":      true,
}

// householdUnits maps household measures to an average weight in grams.
var householdUnits = map[string]float64{
	"el":         15,
	"esslöffel":  15,
	"tbsp":       15,
	"tablespoon": 15,
	"tl":         5,
	"teelöffel":  5,
	"tsp":        5,
	"teaspoon":   5,
	"tasse":      250,
	"cup":        250,
	"becher":     200,
	"mug":        200,
	"glas":       250,
	"glass":      250,
	"handvoll":   40,
	"handful":    40,
	"scheibe":    30,
	"scheiben":   30,
	"slice":      30,
	"portion":    200,
	"portionen":  200,
	"serving":    200,
	"packung":    200,
	"package":    200,
	"pack":       200,
	"dose":       400,
	"can":        400,
}

// DefaultPieceGrams is used for counted foods without a known weight.
const DefaultPieceGrams = 100.0

// pieceWeights holds average edible weights per piece, keyed by the
// lower-cased food name.
var pieceWeights = map[string]float64{
	"ei":            60,
	"eier":          60,
	"hühnerei":      60,
	"apfel":         180,
	"äpfel":         180,
	"banane":        120,
	"bananen":       120,
	"birne":         170,
	"orange":        150,
	"mandarine":     70,
	"kiwi":          75,
	"pfirsich":      150,
	"nektarine":     140,
	"pflaume":       35,
	"zitrone":       100,
	"limette":       60,
	"avocado":       200,
	"mango":         300,
	"tomate":        80,
	"tomaten":       80,
	"kartoffel":     150,
	"kartoffeln":    150,
	"süßkartoffel":  250,
	"karotte":       80,
	"möhre":         80,
	"zwiebel":       80,
	"knoblauchzehe": 4,
	"paprika":       160,
	"gurke":         400,
	"zucchini":      250,
	"brötchen":      60,
	"croissant":     60,
	"brezel":        80,
	"toast":         25,
	"knäckebrot":    10,
	"reiswaffel":    8,
	"dattel":        8,
	"walnuss":       5,
	"praline":       12,
	"keks":          10,
	"müsliriegel":   25,
	"frikadelle":    100,
	"würstchen":     50,
	"bratwurst":     120,
}
