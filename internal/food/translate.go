package food

import (
	"sort"
	"strings"
)

// germanToEnglish maps German food names to search terms understood by the
// USDA database.
var germanToEnglish = map[string]string{
	// Fleisch & Fisch
	"lachs":         "salmon", "thunfisch": "tuna", "forelle": "trout",
	"kabeljau":      "cod", "garnelen": "shrimp", "hering": "herring",
	"makrele":       "mackerel", "sardinen": "sardines", "dorsch": "cod",
	"hähnchen":      "chicken breast", "hühnchen": "chicken",
	"hähnchenbrust": "chicken breast", "hähnchenkeule": "chicken thigh",
	"putenbrust":    "turkey breast", "pute": "turkey",
	"rindfleisch":   "beef", "rindersteak": "beef steak",
	"hackfleisch":   "ground beef", "schweinefleisch": "pork",
	"schweinefilet": "pork tenderloin", "schinken": "ham",
	"speck":         "bacon", "wurst": "sausage", "bratwurst": "bratwurst sausage",
	"lamm":          "lamb", "lammkeule": "lamb leg", "ente": "duck",
	// Milchprodukte
	"milch":                "whole milk", "vollmilch": "whole milk",
	"magermilch":           "skim milk", "buttermilch": "buttermilk",
	"joghurt":              "yogurt", "naturjoghurt": "plain yogurt",
	"griechischer joghurt": "greek yogurt",
	"quark":                "quark", "magerquark": "low fat quark",
	"käse":                 "cheese", "gouda": "gouda cheese", "emmentaler": "swiss cheese",
	"mozzarella":           "mozzarella", "parmesan": "parmesan",
	"frischkäse":           "cream cheese", "feta": "feta cheese",
	"butter":               "butter", "sahne": "heavy cream", "schmand": "sour cream",
	"skyr":                 "skyr yogurt",
	// Eier
	"ei":     "egg", "eier": "eggs", "spiegelei": "fried egg",
	"rührei": "scrambled eggs",
	// Getreide & Beilagen
	"reis":           "rice cooked", "basmatireis": "basmati rice",
	"vollkornreis":   "brown rice", "nudeln": "pasta cooked",
	"spaghetti":      "spaghetti cooked", "penne": "penne pasta",
	"vollkornnudeln": "whole wheat pasta",
	"kartoffeln":     "potato", "kartoffel": "potato",
	"süßkartoffel":   "sweet potato", "süßkartoffeln": "sweet potato",
	"pommes":         "french fries", "brot": "bread",
	"vollkornbrot":   "whole wheat bread", "toast": "toast bread",
	"brötchen":       "bread roll", "knäckebrot": "crispbread",
	"haferflocken":   "oats", "müsli": "muesli", "cornflakes": "cornflakes",
	"couscous":       "couscous", "bulgur": "bulgur", "quinoa": "quinoa",
	"hirse":          "millet",
	// Hülsenfrüchte
	"linsen":       "lentils", "rote linsen": "red lentils",
	"kichererbsen": "chickpeas", "bohnen": "green beans",
	"kidneybohnen": "kidney beans", "schwarze bohnen": "black beans",
	"edamame":      "edamame", "erbsen": "peas", "tofu": "tofu",
	"tempeh":       "tempeh", "sojamilch": "soy milk",
	// Gemüse
	"spinat":      "spinach", "brokkoli": "broccoli", "blumenkohl": "cauliflower",
	"karotte":     "carrot", "karotten": "carrots", "möhre": "carrot",
	"möhren":      "carrots", "tomate": "tomato", "tomaten": "tomatoes",
	"gurke":       "cucumber", "paprika": "bell pepper",
	"zucchini":    "zucchini", "aubergine": "eggplant",
	"zwiebel":     "onion", "knoblauch": "garlic",
	"champignons": "mushrooms", "pilze": "mushrooms",
	"salat":       "lettuce", "kopfsalat": "lettuce", "eisbergsalat": "iceberg lettuce",
	"rucola":      "arugula", "grünkohl": "kale", "rosenkohl": "brussels sprouts",
	"kohlrabi":    "kohlrabi", "rotkohl": "red cabbage",
	"weißkohl":    "white cabbage", "sauerkraut": "sauerkraut",
	"spargel":     "asparagus", "sellerie": "celery",
	"fenchel":     "fennel", "lauch": "leek", "mais": "corn",
	"kürbis":      "pumpkin", "radieschen": "radish", "rote bete": "beet",
	"mangold":     "swiss chard", "pak choi": "bok choy",
	"avocado":     "avocado",
	// Obst
	"apfel":        "apple", "banane": "banana", "orange": "orange",
	"mandarine":    "tangerine", "zitrone": "lemon", "limette": "lime",
	"erdbeeren":    "strawberries", "himbeeren": "raspberries",
	"blaubeeren":   "blueberries", "heidelbeeren": "blueberries",
	"brombeeren":   "blackberries", "johannisbeeren": "currants",
	"trauben":      "grapes", "weintrauben": "grapes",
	"kirsche":      "cherry", "kirschen": "cherries",
	"pfirsich":     "peach", "nektarine": "nectarine",
	"pflaume":      "plum", "birne": "pear",
	"mango":        "mango", "ananas": "pineapple", "kiwi": "kiwi",
	"wassermelone": "watermelon", "honigmelone": "honeydew melon",
	"granatapfel":  "pomegranate", "feige": "fig", "dattel": "date fruit",
	"papaya":       "papaya", "maracuja": "passion fruit",
	// Nüsse & Samen
	"mandeln":           "almonds", "walnüsse": "walnuts",
	"haselnüsse":        "hazelnuts", "cashews": "cashew nuts",
	"erdnüsse":          "peanuts", "erdnussbutter": "peanut butter",
	"pistazien":         "pistachios", "paranüsse": "brazil nuts",
	"macadamia":         "macadamia nuts", "pinienkerne": "pine nuts",
	"sonnenblumenkerne": "sunflower seeds", "kürbiskerne": "pumpkin seeds",
	"leinsamen":         "flaxseed", "chiasamen": "chia seeds",
	"sesam":             "sesame seeds", "hanfsamen": "hemp seeds",
	// Öle & Fette
	"olivenöl":  "olive oil", "rapsöl": "canola oil",
	"kokosöl":   "coconut oil", "sonnenblumenöl": "sunflower oil",
	"leinöl":    "flaxseed oil", "sesamöl": "sesame oil",
	"margarine": "margarine",
	// Getränke
	"kaffee":      "coffee brewed", "tee": "tea brewed",
	"grüner tee":  "green tea", "schwarzer tee": "black tea",
	"orangensaft": "orange juice", "apfelsaft": "apple juice",
	"hafermilch":  "oat milk", "mandelmilch": "almond milk",
	"kokosmilch":  "coconut milk", "bier": "beer", "wein": "wine",
	"rotwein":     "red wine", "weißwein": "white wine",
	// Süßes & Sonstiges
	"honig":      "honey", "zucker": "sugar", "ahornsirup": "maple syrup",
	"schokolade": "chocolate", "zartbitterschokolade": "dark chocolate",
	"marmelade":  "jam", "nutella": "chocolate hazelnut spread",
	"hummus":     "hummus", "tahini": "tahini",
	"senf":       "mustard", "ketchup": "ketchup", "mayonnaise": "mayonnaise",
	"sojasoße":   "soy sauce", "essig": "vinegar",
}

// translationKeysByLength lists dictionary keys longest first so partial
// matches prefer the most specific entry.
var translationKeysByLength = func() []string {
	keys := make([]string, 0, len(germanToEnglish))
	for k := range germanToEnglish {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// minCompoundKey is the shortest dictionary key tried as the leading part of
// a compound word.
const minCompoundKey = 4

// Translate returns the English search term for a German food name. A name
// containing a known word ("gebratener lachs") uses that word's translation,
// and failing that a word starting with a known key ("lachsfilet") does.
func Translate(name string) (string, bool) {
	key := normalizeName(name)
	if key == "" {
		return "", false
	}
	if en, ok := germanToEnglish[key]; ok {
		return en, true
	}
	for _, de := range translationKeysByLength {
		if containsWord(key, de) || containsWord(de, key) {
			return germanToEnglish[de], true
		}
	}
	words := strings.Fields(key)
	for _, de := range translationKeysByLength {
		if len(de) < minCompoundKey || strings.Contains(de, " ") {
			continue
		}
		for _, w := range words {
			if strings.HasPrefix(w, de) {
				return germanToEnglish[de], true
			}
		}
	}
	return "", false
}

// containsWord reports whether needle occurs in haystack on word boundaries,
// so short keys such as "ei" do not match inside "reis".
func containsWord(haystack, needle string) bool {
	hs := " " + haystack + " "
	return strings.Contains(hs, " "+needle+" ")
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
