package relscan

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

var topNRe = regexp.MustCompile(`\btop[ -](\d+)\b`)

// Classifier detecta relaciones estructurales entre pares de preguntas de
// mercado. Es clasificación heurística de texto, no NLP: el falso negativo
// es aceptable, el falso positivo no, así que cada regla exige o un par de
// frases explícito o similitud ≥ MinSimilarity en el texto restante.
type Classifier struct {
	patterns PatternSet
}

func NewClassifier(patterns PatternSet) *Classifier {
	return &Classifier{patterns: patterns}
}

// Classify intenta relacionar dos preguntas. El orden de las reglas importa:
// los patrones explícitos (inverse, top-N) ganan a las señales más débiles
// (mutex, solape de entidades).
func (c *Classifier) Classify(questionA, questionB string) (domain.RelationshipType, float64, bool) {
	normA := normalize(questionA)
	normB := normalize(questionB)
	if normA == normB {
		// Misma pregunta: sin relación que explotar.
		return "", 0, false
	}

	if conf, ok := c.matchInverse(normA, normB); ok {
		return domain.RelationInverse, conf, true
	}
	if rel, conf, ok := c.matchTopN(normA, normB); ok {
		return rel, conf, true
	}
	if conf, ok := c.matchMutex(questionA, questionB, normA, normB); ok {
		return domain.RelationMutuallyExclusive, conf, true
	}
	if conf, ok := c.matchCorrelated(questionA, questionB); ok {
		return domain.RelationCorrelated, conf, true
	}
	return "", 0, false
}

// matchInverse busca un par de frases opuestas con el resto del texto igual:
// "¿BTC por encima de 100k?" / "¿BTC por debajo de 100k?".
func (c *Classifier) matchInverse(normA, normB string) (float64, bool) {
	for _, pair := range c.patterns.InversePairs {
		p, q := pair[0], pair[1]
		var restA, restB string
		switch {
		case strings.Contains(normA, p) && strings.Contains(normB, q):
			restA = strings.Replace(normA, p, "", 1)
			restB = strings.Replace(normB, q, "", 1)
		case strings.Contains(normA, q) && strings.Contains(normB, p):
			restA = strings.Replace(normA, q, "", 1)
			restB = strings.Replace(normB, p, "", 1)
		default:
			continue
		}
		sim := jaccard(tokens(restA), tokens(restB))
		if sim >= c.patterns.MinSimilarity {
			return sim, true
		}
	}
	return 0, false
}

// matchTopN relaciona "top 5" con "top 10" sobre el mismo ranking: acabar
// top-5 implica acabar top-10, así que el mercado con N menor es subconjunto.
func (c *Classifier) matchTopN(normA, normB string) (domain.RelationshipType, float64, bool) {
	mA := topNRe.FindStringSubmatch(normA)
	mB := topNRe.FindStringSubmatch(normB)
	if mA == nil || mB == nil {
		return "", 0, false
	}

	restA := topNRe.ReplaceAllString(normA, "")
	restB := topNRe.ReplaceAllString(normB, "")
	sim := jaccard(tokens(restA), tokens(restB))
	if sim < c.patterns.MinSimilarity {
		return "", 0, false
	}

	nA, nB := atoiSafe(mA[1]), atoiSafe(mB[1])
	switch {
	case nA < nB:
		return domain.RelationSubset, sim, true
	case nA > nB:
		return domain.RelationSuperset, sim, true
	default:
		// Mismo N con texto casi igual: mercados del mismo ranking.
		return domain.RelationCorrelated, sim, true
	}
}

// matchMutex detecta "¿ganará X el torneo?" / "¿ganará Y el torneo?": misma
// frase de evento y cada lado con al menos una entidad propia (los rivales).
// Las entidades compartidas son el evento y no descartan el match.
func (c *Classifier) matchMutex(rawA, rawB, normA, normB string) (float64, bool) {
	for _, phrase := range c.patterns.MutexPhrases {
		if !strings.Contains(normA, phrase) || !strings.Contains(normB, phrase) {
			continue
		}
		entA := entities(rawA)
		entB := entities(rawB)
		shared := overlapCount(entA, entB)
		if len(entA)-shared == 0 || len(entB)-shared == 0 {
			continue
		}
		// Contexto sin entidades: debe ser el mismo evento.
		sim := jaccard(
			tokensWithout(normA, lowered(entA)),
			tokensWithout(normB, lowered(entB)),
		)
		if sim >= c.patterns.MinSimilarity {
			return sim, true
		}
	}
	return 0, false
}

// matchCorrelated usa el solape de entidades nombradas como señal débil de
// correlación: dos preguntas sobre las mismas entidades tienden a moverse
// juntas aunque no haya restricción estructural.
func (c *Classifier) matchCorrelated(rawA, rawB string) (float64, bool) {
	entA := entities(rawA)
	entB := entities(rawB)
	shared := overlapCount(entA, entB)
	if shared < c.patterns.MinSharedEntities {
		return 0, false
	}
	overlap := jaccard(entA, entB)
	if overlap < c.patterns.MinEntityOverlap {
		return 0, false
	}
	return overlap, true
}

// --- helpers de texto ---

// normalize pasa a minúsculas y reduce todo lo que no es letra o dígito a
// espacios simples.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

func tokensWithout(s string, exclude map[string]struct{}) map[string]struct{} {
	out := tokens(s)
	for t := range exclude {
		delete(out, t)
	}
	return out
}

// jaccard devuelve |A∩B| / |A∪B|, 0 para conjuntos vacíos.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

var entityStopwords = map[string]struct{}{
	"will": {}, "who": {}, "what": {}, "which": {}, "the": {}, "a": {},
	"in": {}, "by": {}, "on": {}, "at": {}, "of": {}, "to": {},
}

// entities extrae candidatos a entidad nombrada: palabras capitalizadas o
// totalmente en mayúsculas del texto original (la primera palabra de la
// pregunta no cuenta, casi siempre es el verbo interrogativo).
func entities(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	fields := strings.Fields(raw)
	for i, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f == "" {
			continue
		}
		first := []rune(f)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		if i == 0 {
			continue
		}
		lower := strings.ToLower(f)
		if _, stop := entityStopwords[lower]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

func lowered(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[strings.ToLower(k)] = struct{}{}
	}
	return out
}

func overlapCount(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
