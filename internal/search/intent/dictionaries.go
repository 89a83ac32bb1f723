package intent

import (
	"regexp"

	"repairer-search/internal/search/textnorm"
)

// Dictionary tables are built once at package init and never mutated.
// Aliases are written with accents for readability and folded in init.

type entry struct {
	Key     string
	Label   string
	Aliases []string
}

// brands is scanned in order; the first brand with a matching alias wins.
var brands = []entry{
	{"apple", "Apple", []string{"iphone", "ipad", "macbook", "imac", "airpods", "apple"}},
	{"samsung", "Samsung", []string{"samsung", "galaxy"}},
	{"xiaomi", "Xiaomi", []string{"xiaomi", "redmi", "poco"}},
	{"huawei", "Huawei", []string{"huawei", "mate"}},
	{"honor", "Honor", []string{"honor"}},
	{"oppo", "Oppo", []string{"oppo"}},
	{"oneplus", "OnePlus", []string{"oneplus", "one plus"}},
	{"google", "Google", []string{"pixel", "google"}},
	{"sony", "Sony", []string{"xperia", "playstation", "ps4", "ps5", "sony"}},
	{"nintendo", "Nintendo", []string{"nintendo", "switch"}},
	{"microsoft", "Microsoft", []string{"xbox", "surface", "microsoft"}},
	{"motorola", "Motorola", []string{"motorola", "moto"}},
	{"nokia", "Nokia", []string{"nokia"}},
	{"asus", "Asus", []string{"asus", "rog"}},
	{"lenovo", "Lenovo", []string{"lenovo", "thinkpad"}},
	{"hp", "HP", []string{"hp", "pavilion"}},
	{"dell", "Dell", []string{"dell", "xps"}},
	{"acer", "Acer", []string{"acer", "aspire"}},
}

// repairTypes keys are the canonical French repair categories.
var repairTypes = []entry{
	{"ecran", "écran", []string{"écran", "screen", "vitre", "dalle", "afficheur", "display"}},
	{"batterie", "batterie", []string{"batterie", "battery", "autonomie"}},
	{"connecteur", "connecteur de charge", []string{"connecteur", "port de charge", "prise", "connector", "usb", "lightning"}},
	{"camera", "caméra", []string{"caméra", "camera", "appareil photo", "objectif"}},
	{"haut-parleur", "haut-parleur", []string{"haut-parleur", "haut parleur", "speaker", "écouteur interne", "son"}},
	{"bouton", "bouton", []string{"bouton", "button", "touche", "power", "volume"}},
	{"oxydation", "désoxydation", []string{"désoxydation", "oxydation", "eau", "liquide", "water"}},
	{"logiciel", "logiciel", []string{"logiciel", "software", "mise à jour", "virus", "réinitialisation", "bug"}},
	{"stockage", "stockage", []string{"stockage", "mémoire", "storage", "récupération de données", "données"}},
	{"reseau", "réseau", []string{"réseau", "network", "wifi", "wi-fi", "bluetooth", "4g", "5g"}},
	{"coque", "coque", []string{"coque", "châssis", "chassis", "boîtier", "case"}},
}

var symptoms = []entry{
	{"casse", "cassé", []string{"cassé", "brisé", "fissuré", "fêlé", "éclaté", "broken", "cracked"}},
	{"ne-s-allume-plus", "ne s'allume plus", []string{"ne s'allume plus", "s'allume pas", "ne démarre plus", "ne démarre pas", "écran noir", "mort"}},
	{"ne-charge-plus", "ne charge plus", []string{"ne charge plus", "charge plus", "charge pas", "ne se charge"}},
	{"batterie-faible", "batterie faible", []string{"se décharge", "décharge vite", "batterie faible", "gonflé"}},
	{"tactile-defaillant", "tactile défaillant", []string{"tactile", "ne répond plus", "touch"}},
	{"oxyde", "oxydé", []string{"tombé dans l'eau", "mouillé", "oxydé", "humidité"}},
	{"surchauffe", "surchauffe", []string{"surchauffe", "chauffe", "brûlant"}},
	{"pas-de-son", "pas de son", []string{"pas de son", "plus de son", "grésille", "micro"}},
	{"lent", "lent", []string{"lent", "rame", "freeze", "bloqué", "plante"}},
	{"pas-de-reseau", "pas de réseau", []string{"pas de réseau", "aucun réseau", "pas de wifi", "pas de signal", "no signal"}},
}

var (
	urgentTerms    = []string{"urgent", "urgence", "rapidement", "rapide", "vite", "aujourd'hui", "immédiatement", "express", "asap", "dès que possible"}
	cheapestTerms  = []string{"pas cher", "moins cher", "bon marché", "prix bas", "petit prix", "meilleur prix", "économique", "abordable", "cheap"}
	bestRatedTerms = []string{"meilleur", "mieux noté", "bien noté", "recommandé", "avis", "top", "fiable", "qualité"}
	nearestTerms   = []string{"près", "proche", "à côté", "autour de moi", "proximité", "nearby"}
	certifiedTerms = []string{"certifié", "agréé", "officiel", "label", "qualirépar", "certified"}
	openNowTerms   = []string{"ouvert", "maintenant", "disponible", "dispo", "open now"}
)

// deviceTypes is scanned in order; smartphone terms win over tablet terms.
var deviceTypes = []entry{
	{"smartphone", "smartphone", []string{"smartphone", "téléphone", "mobile", "iphone", "gsm", "pixel", "xperia", "redmi"}},
	{"tablet", "tablette", []string{"tablette", "tablet", "ipad", "galaxy tab"}},
	{"laptop", "ordinateur portable", []string{"ordinateur", "laptop", "macbook", "pc portable", "notebook", "thinkpad", "pc"}},
	{"console", "console", []string{"console", "playstation", "ps4", "ps5", "xbox", "switch", "manette"}},
	{"watch", "montre", []string{"montre", "smartwatch", "watch"}},
}

var stopWords = map[string]bool{}

var stopWordList = []string{
	"le", "la", "les", "un", "une", "des", "du", "de", "d'un", "d'une", "et", "ou", "pour", "avec",
	"sans", "sur", "dans", "au", "aux", "mon", "ma", "mes", "ton", "ta", "tes", "son", "sa", "ses",
	"ce", "cet", "cette", "ces", "qui", "que", "quoi", "est", "sont", "pas", "plus", "très",
	"je", "tu", "il", "elle", "nous", "vous", "ils", "elles", "me", "te", "se", "en", "par",
	"chez", "vers", "être", "avoir", "faire", "besoin", "cherche", "recherche", "trouver",
	"veux", "voudrais", "mais", "donc", "car", "ne", "moi", "toi", "lui", "leur", "leurs",
	"notre", "votre", "quel", "quelle", "quels", "quelles", "comment", "où",
}

// cityPrepositions introduce a trailing city name.
var cityPrepositions = map[string]bool{"à": true, "a": true, "sur": true, "dans": true, "vers": true, "de": true}

// genericTerms never form part of a city name.
var genericTerms = []string{"réparation", "réparer", "réparateur", "reparation", "repair", "changement", "changer", "remplacement", "remplacer", "devis", "prix", "magasin", "boutique"}

// modelPattern is one recognisable model family.
type modelPattern struct {
	re *regexp.Regexp
}

func mp(expr string) modelPattern {
	return modelPattern{re: regexp.MustCompile(expr)}
}

// modelPatterns maps a brand key to its model families, tried in order.
var modelPatterns = map[string][]modelPattern{
	"apple": {
		mp(`iphone\s*(\d{1,2}|se|xr|xs|x)\s*(pro max|pro|plus|mini|max)?`),
		mp(`ipad\s*(pro|air|mini)(\s*\d{1,2})?`),
		mp(`ipad\s*\d{1,2}`),
		mp(`macbook\s*(pro|air)(\s*\d{2})?`),
		mp(`apple watch\s*(series\s*\d{1,2}|ultra\s*\d?|se)`),
	},
	"samsung": {
		mp(`galaxy\s*z\s*(fold|flip)\s*\d?`),
		mp(`galaxy\s*tab\s*[as]\d{1,2}`),
		mp(`galaxy\s*[asmn]\s*\d{1,3}\s*(ultra|plus|fe|5g)?`),
		mp(`galaxy\s*note\s*\d{1,2}`),
	},
	"xiaomi": {
		mp(`redmi\s*note\s*\d{1,2}\s*(pro|s)?`),
		mp(`redmi\s*\d{1,2}[a-z]?`),
		mp(`xiaomi\s*\d{1,2}\s*(t pro|pro|ultra|lite|t)?`),
		mp(`poco\s*[fmx]\d`),
	},
	"huawei": {
		mp(`huawei\s*p\s*\d{2}\s*(pro|lite)?`),
		mp(`mate\s*\d{2}\s*(pro|lite)?`),
	},
	"google": {
		mp(`pixel\s*\d{1,2}\s*(pro|xl|a)?`),
	},
	"oneplus": {
		mp(`oneplus\s*(nord\s*)?\d{1,2}\s*(pro|t)?`),
	},
	"sony": {
		mp(`xperia\s*\d{1,2}\s*(iv|v|vi|iii|ii)?`),
		mp(`(playstation\s*|ps)[345]`),
	},
	"nintendo": {
		mp(`switch\s*(oled|lite)`),
	},
	"microsoft": {
		mp(`xbox\s*(series\s*[xs]|one\s*[xs]|one|360)`),
		mp(`surface\s*(pro|laptop|go)(\s*\d{1,2})?`),
	},
}

// defaultModelOrder is the brand order used when no brand was detected.
var defaultModelOrder = []string{"apple", "samsung", "xiaomi", "huawei", "google", "oneplus", "sony", "nintendo", "microsoft"}

var (
	postalCodeRe = regexp.MustCompile(`\b(\d{5})\b`)
	digitsRe     = regexp.MustCompile(`\d`)
)

// keywordTerms is every folded dictionary term; a city candidate may not be one of them.
var keywordTerms = map[string]bool{}

func init() {
	foldEntries(brands)
	foldEntries(repairTypes)
	foldEntries(symptoms)
	foldEntries(deviceTypes)
	for _, list := range []*[]string{&urgentTerms, &cheapestTerms, &bestRatedTerms, &nearestTerms, &certifiedTerms, &openNowTerms, &genericTerms} {
		foldList(*list)
		for _, term := range *list {
			keywordTerms[term] = true
		}
	}
	for _, w := range stopWordList {
		stopWords[textnorm.Fold(w)] = true
	}
}

func foldEntries(entries []entry) {
	for i := range entries {
		foldList(entries[i].Aliases)
		for _, alias := range entries[i].Aliases {
			keywordTerms[alias] = true
		}
		keywordTerms[entries[i].Key] = true
	}
}

func foldList(list []string) {
	for i, term := range list {
		list[i] = textnorm.Fold(term)
	}
}

// lookup returns the first entry having an alias contained in folded text.
func lookup(entries []entry, folded string) (entry, bool) {
	for _, e := range entries {
		if _, ok := textnorm.ContainsAny(folded, e.Aliases); ok {
			return e, true
		}
	}
	return entry{}, false
}

// BrandLabel returns the display name of a brand key, or the key itself.
func BrandLabel(key string) string {
	for _, b := range brands {
		if b.Key == key {
			return b.Label
		}
	}
	return key
}

// RepairTypeLabel returns the display label of a repair type key, or the key itself.
func RepairTypeLabel(key string) string {
	for _, r := range repairTypes {
		if r.Key == key {
			return r.Label
		}
	}
	return key
}

// Brands returns the brand keys in detection order.
func Brands() []string {
	keys := make([]string, len(brands))
	for i, b := range brands {
		keys[i] = b.Key
	}
	return keys
}

// RepairTypes returns the repair type keys in detection order.
func RepairTypes() []string {
	keys := make([]string, len(repairTypes))
	for i, r := range repairTypes {
		keys[i] = r.Key
	}
	return keys
}
