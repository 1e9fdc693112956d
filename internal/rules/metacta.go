package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

// CTA signal categories, in weight order.
const (
	ctaAction     = "action"
	ctaImperative = "imperative"
	ctaUrgency    = "urgency"
	ctaBenefit    = "benefit"
	ctaQuestion   = "question"
	ctaPerson     = "person"
)

// ctaWeights are the fixed per-category contributions. A category counts
// once no matter how many of its patterns match.
var ctaWeights = map[string]float64{
	ctaAction:     0.35,
	ctaImperative: 0.25,
	ctaUrgency:    0.20,
	ctaBenefit:    0.15,
	ctaQuestion:   0.10,
	ctaPerson:     0.05,
}

// ctaCategoryOrder fixes the evaluation and reporting order.
var ctaCategoryOrder = []string{ctaAction, ctaImperative, ctaUrgency, ctaBenefit, ctaQuestion, ctaPerson}

// HasCTAThreshold is the minimum weighted score for a description to count
// as carrying a call to action.
const HasCTAThreshold = 0.30

// ctaSources holds the raw localized pattern sets, compiled once at
// package init. Keyed by 2-letter language, then category.
var ctaSources = map[string]map[string][]string{
	"en": {
		ctaAction:     {`\b(buy|shop|order|subscribe|download|register|join|book|claim)\b`, `\bsign up\b`, `\bget (started|yours)\b`},
		ctaImperative: {`\b(learn|discover|explore|try|read|compare|browse|start)\b`, `\bfind out\b`, `\bsee how\b`, `\bcheck out\b`},
		ctaUrgency:    {`\b(now|today|hurry|instantly|limited)\b`, `\blast chance\b`, `\bdon'?t miss\b`, `\bact fast\b`, `\bends (soon|today)\b`},
		ctaBenefit:    {`\b(save|free|exclusive|boost|improve|guaranteed?|win|bonus|discount)\b`},
		ctaQuestion:   {`\?`, `\b(how|why|what|which|when)\b.*\?`},
		ctaPerson:     {`\byours?\b`, `\byourself\b`, `\byou\b`},
	},
	"de": {
		ctaAction:     {`\b(kaufen|bestellen|abonnieren|herunterladen|registrieren|buchen|sichern)\b`, `\bjetzt kaufen\b`},
		ctaImperative: {`\b(entdecken|erfahren|lernen|testen|lesen|vergleichen|starten)\b`, `\bfinden sie\b`},
		ctaUrgency:    {`\b(jetzt|heute|sofort|begrenzt|schnell)\b`, `\bnur noch\b`, `\bverpassen sie nicht\b`},
		ctaBenefit:    {`\b(sparen|kostenlos|gratis|exklusiv|verbessern|garantiert|rabatt)\b`},
		ctaQuestion:   {`\?`, `\b(wie|warum|was|welche)\b.*\?`},
		ctaPerson:     {`\b(sie|ihr|ihre|du|dein|deine)\b`},
	},
	"fr": {
		ctaAction:     {`\b(acheter|commander|abonner|télécharger|inscrire|réserver|profiter)\b`},
		ctaImperative: {`\b(découvrez|apprenez|explorez|essayez|lisez|comparez|commencez)\b`},
		ctaUrgency:    {`\b(maintenant|aujourd'hui|vite|immédiatement|limitée?)\b`, `\bne manquez pas\b`, `\bdernière chance\b`},
		ctaBenefit:    {`\b(économisez|gratuit|exclusif|améliorez|garanti|réduction)\b`},
		ctaQuestion:   {`\?`, `\b(comment|pourquoi|que|quel|quelle)\b.*\?`},
		ctaPerson:     {`\b(vous|votre|vos|tu|ton|ta)\b`},
	},
	"es": {
		ctaAction:     {`\b(compra|comprar|pide|suscríbete|descarga|regístrate|reserva|aprovecha)\b`},
		ctaImperative: {`\b(descubre|aprende|explora|prueba|lee|compara|empieza)\b`},
		ctaUrgency:    {`\b(ahora|hoy|ya|inmediatamente|limitad[oa])\b`, `\bno te pierdas\b`, `\búltima oportunidad\b`},
		ctaBenefit:    {`\b(ahorra|gratis|exclusivo|mejora|garantizado|descuento)\b`},
		ctaQuestion:   {`\?`, `¿`},
		ctaPerson:     {`\b(tú|tu|tus|usted|su|sus)\b`},
	},
	"it": {
		ctaAction:     {`\b(compra|acquista|ordina|iscriviti|scarica|registrati|prenota|approfitta)\b`},
		ctaImperative: {`\b(scopri|impara|esplora|prova|leggi|confronta|inizia)\b`},
		ctaUrgency:    {`\b(ora|adesso|oggi|subito|limitat[oa])\b`, `\bnon perdere\b`, `\bultima occasione\b`},
		ctaBenefit:    {`\b(risparmia|gratis|gratuito|esclusivo|migliora|garantito|sconto)\b`},
		ctaQuestion:   {`\?`, `\b(come|perché|cosa|quale)\b.*\?`},
		ctaPerson:     {`\b(tu|tuo|tua|tuoi|lei|suo|sua)\b`},
	},
	"nl": {
		ctaAction:     {`\b(koop|bestel|abonneer|download|registreer|boek|profiteer)\b`},
		ctaImperative: {`\b(ontdek|leer|verken|probeer|lees|vergelijk|begin|bekijk)\b`},
		ctaUrgency:    {`\b(nu|vandaag|snel|direct|beperkt)\b`, `\bmis het niet\b`, `\blaatste kans\b`},
		ctaBenefit:    {`\b(bespaar|gratis|exclusief|verbeter|gegarandeerd|korting)\b`},
		ctaQuestion:   {`\?`, `\b(hoe|waarom|wat|welke)\b.*\?`},
		ctaPerson:     {`\b(je|jouw|jij|u|uw)\b`},
	},
	"pt": {
		ctaAction:     {`\b(compre|peça|assine|baixe|registre|reserve|aproveite)\b`},
		ctaImperative: {`\b(descubra|aprenda|explore|experimente|leia|compare|comece|veja)\b`},
		ctaUrgency:    {`\b(agora|hoje|já|imediatamente|limitad[oa])\b`, `\bnão perca\b`, `\búltima chance\b`},
		ctaBenefit:    {`\b(economize|grátis|gratuito|exclusivo|melhore|garantido|desconto)\b`},
		ctaQuestion:   {`\?`, `\b(como|por que|o que|qual)\b.*\?`},
		ctaPerson:     {`\b(você|seu|sua|seus|suas|te)\b`},
	},
	"pl": {
		ctaAction:     {`\b(kup|zamów|subskrybuj|pobierz|zarejestruj|zarezerwuj|skorzystaj)\b`},
		ctaImperative: {`\b(odkryj|poznaj|sprawdź|wypróbuj|przeczytaj|porównaj|zacznij|zobacz)\b`},
		ctaUrgency:    {`\b(teraz|dziś|dzisiaj|natychmiast|szybko|ograniczon[ay])\b`, `\bnie przegap\b`, `\bostatnia szansa\b`},
		ctaBenefit:    {`\b(oszczędź|darmowy|za darmo|ekskluzywny|popraw|gwarantowany|rabat)\b`},
		ctaQuestion:   {`\?`, `\b(jak|dlaczego|co|który)\b.*\?`},
		ctaPerson:     {`\b(ty|twój|twoja|twoje|ci|ciebie)\b`},
	},
}

// exactLocales maps full site locales to pattern languages before the
// 2-letter prefix fallback applies.
var exactLocales = map[string]string{
	"en_US": "en", "en_GB": "en", "en_AU": "en",
	"de_DE": "de", "de_AT": "de", "de_CH": "de",
	"fr_FR": "fr", "fr_CA": "fr", "fr_BE": "fr",
	"es_ES": "es", "es_MX": "es", "es_AR": "es",
	"it_IT": "it",
	"nl_NL": "nl", "nl_BE": "nl",
	"pt_PT": "pt", "pt_BR": "pt",
	"pl_PL": "pl",
}

var ctaPatterns = compileCTAPatterns()

func compileCTAPatterns() map[string]map[string][]*regexp.Regexp {
	compiled := make(map[string]map[string][]*regexp.Regexp, len(ctaSources))
	for lang, categories := range ctaSources {
		compiled[lang] = make(map[string][]*regexp.Regexp, len(categories))
		for category, sources := range categories {
			for _, src := range sources {
				compiled[lang][category] = append(compiled[lang][category], regexp.MustCompile(`(?i)`+src))
			}
		}
	}
	return compiled
}

// ResolveCTALanguage maps a site locale (e.g. "de_DE") onto a supported
// pattern language: exact match first, then 2-letter prefix, then English.
func ResolveCTALanguage(locale string) string {
	if lang, ok := exactLocales[locale]; ok {
		return lang
	}
	if len(locale) >= 2 {
		prefix := strings.ToLower(locale[:2])
		if _, ok := ctaPatterns[prefix]; ok {
			return prefix
		}
	}
	return "en"
}

// MetaDescriptionCTA scores the call-to-action strength of the meta
// description using localized signal patterns.
type MetaDescriptionCTA struct {
	provider content.Provider
	ttl      time.Duration
}

// NewMetaDescriptionCTA builds the rule. ttl bounds the lifetime of the
// matched-detail transient; zero means one hour.
func NewMetaDescriptionCTA(p content.Provider, ttl time.Duration) *MetaDescriptionCTA {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MetaDescriptionCTA{provider: p, ttl: ttl}
}

// Descriptor returns the rule's static metadata.
func (o *MetaDescriptionCTA) Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name:        "meta_description_cta_validation_operation",
		DisplayName: "Meta description call to action",
		Description: "Detects call-to-action signals in the meta description across six weighted categories.",
		Weight:      0.4,
		Tier:        engine.TierFree,
	}
}

// Run evaluates the localized CTA signal categories against the meta
// description. Matched-category detail is mirrored to a transient for the
// admin surface; that write is best effort.
func (o *MetaDescriptionCTA) Run(ctx context.Context, postID int64) engine.Result {
	desc, err := o.provider.MetaDescription(ctx, postID)
	if err != nil {
		return engine.Failure(err.Error())
	}
	if desc == "" {
		return engine.Result{
			"success":   false,
			"message":   "no meta description found",
			"cta_score": 0.0,
			"has_cta":   false,
		}
	}

	lang := ResolveCTALanguage(o.provider.SiteLocale())
	score, matched := EvaluateCTA(desc, lang)

	_ = o.provider.SetTransient(
		fmt.Sprintf("seoscope_cta_detail_%d", postID),
		map[string]any{"language": lang, "matched": matched},
		o.ttl,
	)

	return engine.Result{
		"success":   true,
		"cta_score": score,
		"has_cta":   score >= HasCTAThreshold,
		"matched":   matched,
		"language":  lang,
	}
}

// EvaluateCTA returns the weighted CTA score for text in the given pattern
// language and the list of matched categories, in weight order. The first
// matching pattern decides a category; further matches in the same
// category never double-count.
func EvaluateCTA(text, lang string) (float64, []string) {
	categories, ok := ctaPatterns[lang]
	if !ok {
		categories = ctaPatterns["en"]
	}

	score := 0.0
	var matched []string
	for _, category := range ctaCategoryOrder {
		for _, re := range categories[category] {
			if re.MatchString(text) {
				score += ctaWeights[category]
				matched = append(matched, category)
				break
			}
		}
	}
	if score > 1 {
		score = 1
	}
	return score, matched
}

// Score returns the weighted CTA score from the run result.
func (o *MetaDescriptionCTA) Score(r engine.Result) float64 {
	return clamp(r.Float("cta_score"), 0, 1)
}

// Suggestions flags a missing or weak call to action. A page without any
// meta description is the length rule's problem, not this rule's.
func (o *MetaDescriptionCTA) Suggestions(r engine.Result) []engine.Suggestion {
	if len(r) == 0 || !r.Success() {
		return []engine.Suggestion{}
	}
	if !r.Bool("has_cta") {
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionNoCTA)}
	}
	if r.Float("cta_score") < 0.5 {
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionWeakCTA)}
	}
	return []engine.Suggestion{}
}
