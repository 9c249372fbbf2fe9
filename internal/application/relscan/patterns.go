package relscan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PatternSet son los patrones lingüísticos del clasificador de relaciones.
// Cargable desde YAML para ajustar los patrones sin recompilar.
type PatternSet struct {
	// InversePairs: pares de frases opuestas. Si una pregunta contiene la
	// primera y la otra la segunda (y el resto del texto coincide), los
	// mercados son inversos: P(A) + P(B) ≈ 1.
	InversePairs [][2]string `yaml:"inverse_pairs"`

	// MutexPhrases: frases de evento excluyente ("ganar X" solo puede
	// cumplirlo un candidato). Dos preguntas con la misma frase, mismo
	// contexto y entidades distintas son mutuamente excluyentes.
	MutexPhrases []string `yaml:"mutex_phrases"`

	// MinSimilarity: similitud mínima del texto restante para aceptar un
	// match de inverse o mutex. Por debajo preferimos el falso negativo.
	MinSimilarity float64 `yaml:"min_similarity"`

	// MinEntityOverlap: solape Jaccard mínimo de entidades para marcar
	// dos mercados como correlacionados.
	MinEntityOverlap float64 `yaml:"min_entity_overlap"`

	// MinSharedEntities: número mínimo de entidades compartidas para que
	// el solape cuente. Una sola entidad común produce demasiado ruido.
	MinSharedEntities int `yaml:"min_shared_entities"`
}

// DefaultPatterns devuelve la tabla de patrones incorporada.
func DefaultPatterns() PatternSet {
	return PatternSet{
		InversePairs: [][2]string{
			{"above", "below"},
			{"more than", "less than"},
			{"higher than", "lower than"},
			{"rise", "fall"},
			{"increase", "decrease"},
			{"win", "lose"},
			{"before", "after"},
			{"pass", "fail"},
			{"approve", "reject"},
		},
		MutexPhrases: []string{
			"win the",
			"be elected",
			"be named",
			"become the",
			"finish first",
		},
		MinSimilarity:     0.7,
		MinEntityOverlap:  0.5,
		MinSharedEntities: 2,
	}
}

// LoadPatterns lee una tabla de patrones desde un fichero YAML. Los campos
// ausentes conservan los valores por defecto.
func LoadPatterns(path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternSet{}, fmt.Errorf("relscan.LoadPatterns: leyendo %s: %w", path, err)
	}

	p := DefaultPatterns()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return PatternSet{}, fmt.Errorf("relscan.LoadPatterns: parseando %s: %w", path, err)
	}
	if p.MinSimilarity <= 0 || p.MinSimilarity > 1 {
		return PatternSet{}, fmt.Errorf("relscan.LoadPatterns: min_similarity fuera de (0,1]: %f", p.MinSimilarity)
	}
	return p, nil
}
