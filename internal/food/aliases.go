package food

import (
	"context"
	"fmt"
	"sort"
)

// aliases maps colloquial names to the canonical label used by the local
// food table. Keys are lowercase and trimmed.
var aliases = map[string]string{
	"hähnchenbrust":  "Hähnchen Brust, roh",
	"hühnerbrust":    "Hähnchen Brust, roh",
	"chicken":        "Hähnchen Brust, roh",
	"hackfleisch":    "Rind Hackfleisch, roh",
	"rinderhack":     "Rind Hackfleisch, roh",
	"ei":             "Hühnerei, gesamt, roh",
	"eier":           "Hühnerei, gesamt, roh",
	"kartoffel":      "Kartoffel, geschält, gegart",
	"kartoffeln":     "Kartoffel, geschält, gegart",
	"reis":           "Reis, parboiled, gegart",
	"nudeln":         "Teigwaren, eifrei, gegart",
	"pasta":          "Teigwaren, eifrei, gegart",
	"spaghetti":      "Teigwaren, eifrei, gegart",
	"haferflocken":   "Hafer Flocken",
	"milch":          "Kuhmilch, 3,5% Fett",
	"vollmilch":      "Kuhmilch, 3,5% Fett",
	"joghurt":        "Joghurt, 3,5% Fett",
	"magerquark":     "Speisequark, mager",
	"quark":          "Speisequark, 20% Fett i. Tr.",
	"brot":           "Mischbrot",
	"vollkornbrot":   "Roggenvollkornbrot",
	"brötchen":       "Weizenbrötchen",
	"apfel":          "Apfel, roh",
	"banane":         "Banane, roh",
	"tomate":         "Tomate, roh",
	"tomaten":        "Tomate, roh",
	"gurke":          "Gurke, roh",
	"karotte":        "Möhre, roh",
	"karotten":       "Möhre, roh",
	"olivenöl":       "Olivenöl",
	"butter":         "Butter",
	"lachs":          "Lachs, roh",
	"thunfisch dose": "Thunfisch in Öl, Konserve",
	"kaffee":         "Kaffee, Getränk",
	"erdnussbutter":  "Erdnussmus",
	"linsen":         "Linse, reif, gegart",
	"kichererbsen":   "Kichererbse, reif, gegart",
	"spinat":         "Spinat, roh",
	"brokkoli":       "Brokkoli, roh",
	"paprika":        "Paprikaschote, roh",
	"mandeln":        "Mandel, süß",
	"walnüsse":       "Walnuss",
	"käse":           "Gouda, 45% Fett i. Tr.",
	"gouda":          "Gouda, 45% Fett i. Tr.",
	"mozzarella":     "Mozzarella",
	"tofu":           "Tofu",
	"honig":          "Honig",
	"zucker":         "Zucker, weiß",
	"orangensaft":    "Orangensaft",
	"bier":           "Bier, Vollbier, hell",
}

// ResolveAlias returns the canonical local name for name, or name itself
// when no alias applies.
func ResolveAlias(name string) string {
	if canonical, ok := aliases[normalizeName(name)]; ok {
		return canonical
	}
	return name
}

// NameChecker reports whether the local table holds a food with exactly the
// given name.
type NameChecker interface {
	HasName(ctx context.Context, name string) (bool, error)
}

// AliasDefect is an alias whose canonical target is absent from the local
// table.
type AliasDefect struct {
	Alias     string
	Canonical string
}

func (d AliasDefect) String() string {
	return fmt.Sprintf("%q -> %q", d.Alias, d.Canonical)
}

// ValidateAliases checks every alias target against the local table and
// returns the ones that do not exist, sorted by alias.
func ValidateAliases(ctx context.Context, checker NameChecker) ([]AliasDefect, error) {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var defects []AliasDefect
	for _, k := range keys {
		ok, err := checker.HasName(ctx, aliases[k])
		if err != nil {
			return nil, fmt.Errorf("failed to check alias %q: %w", k, err)
		}
		if !ok {
			defects = append(defects, AliasDefect{Alias: k, Canonical: aliases[k]})
		}
	}
	return defects, nil
}
