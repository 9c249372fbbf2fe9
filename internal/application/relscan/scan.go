package relscan

import (
	"github.com/alejandrodnm/polyedge/internal/domain"
)

// DefaultMaxMarkets acota el scan O(n²): con más candidatos el coste por
// ciclo deja de ser despreciable.
const DefaultMaxMarkets = 100

// ScanResult es la salida de un scan completo sobre un conjunto de mercados.
type ScanResult struct {
	Relationships []domain.MarketRelationship
	Opportunities []domain.ArbOpportunity
}

// Scanner recorre pares de mercados buscando relaciones estructurales y
// violaciones de precio explotables. Sin estado mutable: seguro de invocar
// concurrentemente desde el pipeline y el scan de salidas.
type Scanner struct {
	classifier *Classifier
	arbParams  domain.ArbParams
	maxMarkets int
}

func NewScanner(classifier *Classifier, arbParams domain.ArbParams) *Scanner {
	return &Scanner{
		classifier: classifier,
		arbParams:  arbParams,
		maxMarkets: DefaultMaxMarkets,
	}
}

// SetMaxMarkets ajusta el cap del scan. Valores <= 0 se ignoran.
func (s *Scanner) SetMaxMarkets(n int) {
	if n > 0 {
		s.maxMarkets = n
	}
}

// Scan clasifica cada par de mercados una sola vez (dedup por clave canónica)
// y computa el arbitraje de los pares relacionados. Las oportunidades salen
// ordenadas por profit esperado descendente.
func (s *Scanner) Scan(markets []domain.MarketSignal) ScanResult {
	if len(markets) > s.maxMarkets {
		markets = markets[:s.maxMarkets]
	}

	var result ScanResult
	seen := make(map[string]struct{})

	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			a, b := markets[i], markets[j]
			key := domain.PairKey(a.MarketID, b.MarketID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			relType, conf, ok := s.classifier.Classify(a.Question, b.Question)
			if !ok {
				continue
			}
			rel := domain.MarketRelationship{
				MarketA:     a.MarketID,
				MarketB:     b.MarketID,
				Type:        relType,
				Confidence:  conf,
				Description: domain.ExpectedRelationDescription(relType),
			}
			result.Relationships = append(result.Relationships, rel)

			if arb, found := domain.ComputeArbitrage(rel, a.Price, b.Price, s.arbParams); found {
				result.Opportunities = append(result.Opportunities, arb)
			}
		}
	}

	domain.SortArbsByProfit(result.Opportunities)
	return result
}

// RelatedFor devuelve las posiciones abiertas relacionadas con el mercado
// candidato, para el ajuste de tamaño por correlación. Posiciones sobre el
// mismo mercado cuentan como exposición directa (peso de inversa).
func (s *Scanner) RelatedFor(candidate domain.MarketSignal, open []domain.Position) []domain.RelatedHolding {
	var related []domain.RelatedHolding
	for _, pos := range open {
		if pos.MarketID == candidate.MarketID {
			related = append(related, domain.RelatedHolding{
				MarketID: pos.MarketID,
				Size:     pos.Size,
				Type:     domain.RelationInverse,
			})
			continue
		}
		relType, _, ok := s.classifier.Classify(candidate.Question, pos.Question)
		if !ok {
			continue
		}
		related = append(related, domain.RelatedHolding{
			MarketID: pos.MarketID,
			Size:     pos.Size,
			Type:     relType,
		})
	}
	return related
}
