package domain

// timeprofile.go — pesado temporal hacia la resolución.
//
// Cuanto más cerca está un mercado de resolverse, más volátil es su precio y
// menos fiable el edge del modelo: el decay reduce el edge efectivo, el
// multiplicador de volatilidad encoge el tamaño y sube el edge mínimo exigido.

import (
	"fmt"
	"math"
)

// Archetype agrupa categorías con dinámica temporal similar.
type Archetype string

const (
	ArchetypeBinaryEvent Archetype = "binary-event" // elecciones, anuncios puntuales
	ArchetypeContinuous  Archetype = "continuous"   // crypto, métricas económicas
	ArchetypeSports      Archetype = "sports"       // partidos, torneos
	ArchetypeLongTerm    Archetype = "long-term"    // ciencia, resoluciones lejanas
)

// ArchetypeFor mapea una categoría a su arquetipo temporal.
func ArchetypeFor(cat Category) Archetype {
	switch cat {
	case CategoryPolitics:
		return ArchetypeBinaryEvent
	case CategoryCrypto, CategoryEconomics:
		return ArchetypeContinuous
	case CategorySports:
		return ArchetypeSports
	case CategoryScience:
		return ArchetypeLongTerm
	default:
		return ArchetypeContinuous
	}
}

// profileStep es un escalón de las step functions: aplica cuando
// daysRemaining > MinDays.
type profileStep struct {
	MinDays   float64
	VolMult   float64 // ≥ 1, creciente al acercarse la resolución
	EdgeDecay float64 // ∈ (0,1], decreciente al acercarse la resolución
}

// TimeProfile son las dos step functions de un arquetipo. Configuración
// estática: no se muta en runtime.
type TimeProfile struct {
	Archetype Archetype
	steps     []profileStep // ordenados de más días a menos
}

// Las tablas son monótonas por construcción: VolMult no decrece y EdgeDecay
// no crece según bajan los días. TestProfilesMonotone lo verifica.
var profiles = map[Archetype]TimeProfile{
	ArchetypeBinaryEvent: {Archetype: ArchetypeBinaryEvent, steps: []profileStep{
		{MinDays: 30, VolMult: 1.0, EdgeDecay: 1.0},
		{MinDays: 14, VolMult: 1.15, EdgeDecay: 0.95},
		{MinDays: 7, VolMult: 1.35, EdgeDecay: 0.85},
		{MinDays: 3, VolMult: 1.6, EdgeDecay: 0.70},
		{MinDays: 1, VolMult: 2.0, EdgeDecay: 0.50},
		{MinDays: 0, VolMult: 2.5, EdgeDecay: 0.30},
	}},
	ArchetypeContinuous: {Archetype: ArchetypeContinuous, steps: []profileStep{
		{MinDays: 30, VolMult: 1.0, EdgeDecay: 1.0},
		{MinDays: 7, VolMult: 1.1, EdgeDecay: 0.95},
		{MinDays: 3, VolMult: 1.25, EdgeDecay: 0.85},
		{MinDays: 1, VolMult: 1.5, EdgeDecay: 0.70},
		{MinDays: 0, VolMult: 1.8, EdgeDecay: 0.55},
	}},
	ArchetypeSports: {Archetype: ArchetypeSports, steps: []profileStep{
		{MinDays: 7, VolMult: 1.0, EdgeDecay: 1.0},
		{MinDays: 2, VolMult: 1.2, EdgeDecay: 0.90},
		{MinDays: 1, VolMult: 1.6, EdgeDecay: 0.70},
		{MinDays: 0, VolMult: 2.2, EdgeDecay: 0.40},
	}},
	ArchetypeLongTerm: {Archetype: ArchetypeLongTerm, steps: []profileStep{
		{MinDays: 90, VolMult: 1.0, EdgeDecay: 1.0},
		{MinDays: 30, VolMult: 1.05, EdgeDecay: 0.98},
		{MinDays: 7, VolMult: 1.15, EdgeDecay: 0.90},
		{MinDays: 0, VolMult: 1.4, EdgeDecay: 0.75},
	}},
}

// ProfileFor devuelve el perfil temporal de una categoría.
func ProfileFor(cat Category) TimeProfile {
	return profiles[ArchetypeFor(cat)]
}

// VolatilityMultiplier devuelve el multiplicador (≥ 1.0) para los días
// restantes dados. Sin fecha de resolución (daysRemaining < 0) → 1.0.
func (p TimeProfile) VolatilityMultiplier(daysRemaining float64) float64 {
	if daysRemaining < 0 || len(p.steps) == 0 {
		return 1.0
	}
	for _, s := range p.steps {
		if daysRemaining > s.MinDays {
			return s.VolMult
		}
	}
	return p.steps[len(p.steps)-1].VolMult
}

// EdgeDecay devuelve el factor de decay (∈ (0,1]) para los días restantes.
func (p TimeProfile) EdgeDecay(daysRemaining float64) float64 {
	if daysRemaining < 0 || len(p.steps) == 0 {
		return 1.0
	}
	for _, s := range p.steps {
		if daysRemaining > s.MinDays {
			return s.EdgeDecay
		}
	}
	return p.steps[len(p.steps)-1].EdgeDecay
}

// TimingTier clasifica la urgencia de entrada según la eficiencia del edge.
type TimingTier string

const (
	TierEnterNowStrong TimingTier = "ENTER_NOW_STRONG"
	TierEnterNow       TimingTier = "ENTER_NOW"
	TierEnterSmall     TimingTier = "ENTER_SMALL" // medio tamaño
	TierWait           TimingTier = "WAIT"
	TierSkip           TimingTier = "SKIP"
)

// TimeDecision es el veredicto del pesado temporal.
type TimeDecision string

const (
	DecisionAccept       TimeDecision = "ACCEPT"
	DecisionRejectTime   TimeDecision = "REJECT_TIME"   // demasiado cerca de resolver
	DecisionRejectEdge   TimeDecision = "REJECT_EDGE"   // edge bajo el mínimo exigido
	DecisionRejectTiming TimeDecision = "REJECT_TIMING" // SKIP del tier de timing
)

// TimeWeightParams parametriza el pesado temporal.
type TimeWeightParams struct {
	// BaseMinEdge es el edge mínimo con mercado lejano; se multiplica por
	// volatilidad al acercarse la resolución, con tope MaxMinEdge.
	BaseMinEdge float64
	// MaxMinEdge acota el edge mínimo exigido (default 0.20).
	MaxMinEdge float64
	// NoTradeDays: dentro de esta ventana no se opera (default 0.25 = 6h).
	NoTradeDays float64
	// WaitHorizonDays: por debajo de eficiencia 1.0 con más días que esto → WAIT.
	WaitHorizonDays float64
}

// DefaultTimeWeightParams devuelve la parametrización estándar.
func DefaultTimeWeightParams() TimeWeightParams {
	return TimeWeightParams{
		BaseMinEdge:     0.05,
		MaxMinEdge:      0.20,
		NoTradeDays:     0.25,
		WaitHorizonDays: 7,
	}
}

// TimeAdjustment es el resultado del pesado temporal de una señal.
type TimeAdjustment struct {
	DaysRemaining   float64
	VolMultiplier   float64
	EdgeDecay       float64
	AdjustedEdge    float64
	AdjustedSize    float64
	MinEdgeRequired float64
	EdgeEfficiency  float64 // |rawEdge| / MinEdgeRequired
	Tier            TimingTier
	Decision        TimeDecision
	ShouldTrade     bool
	Reason          string
}

// ApplyTimeWeight aplica el perfil temporal de la categoría a un edge crudo
// y un tamaño base.
//
// Orden de decisión (el primer check que falla manda):
//  1. tiempo: daysRemaining ≤ NoTradeDays → REJECT_TIME
//  2. edge: |adjustedEdge| < MinEdgeRequired → REJECT_EDGE
//  3. timing: tier SKIP → REJECT_TIMING
//
// Sin fecha de resolución todos los ajustes son identidad y la decisión es
// ACCEPT: la ausencia de horizonte no penaliza la señal.
func ApplyTimeWeight(rawEdge, baseSize float64, cat Category, daysRemaining float64, hasResolution bool, params TimeWeightParams) TimeAdjustment {
	if !hasResolution {
		return TimeAdjustment{
			DaysRemaining:   0,
			VolMultiplier:   1.0,
			EdgeDecay:       1.0,
			AdjustedEdge:    rawEdge,
			AdjustedSize:    baseSize,
			MinEdgeRequired: params.BaseMinEdge,
			EdgeEfficiency:  efficiency(rawEdge, params.BaseMinEdge),
			Tier:            TierEnterNow,
			Decision:        DecisionAccept,
			ShouldTrade:     true,
			Reason:          "sin fecha de resolución: ajustes identidad",
		}
	}

	if daysRemaining < 0 {
		daysRemaining = 0
	}
	profile := ProfileFor(cat)
	volMult := profile.VolatilityMultiplier(daysRemaining)
	decay := profile.EdgeDecay(daysRemaining)

	minEdge := params.BaseMinEdge * volMult
	if minEdge > params.MaxMinEdge {
		minEdge = params.MaxMinEdge
	}

	adj := TimeAdjustment{
		DaysRemaining:   daysRemaining,
		VolMultiplier:   volMult,
		EdgeDecay:       decay,
		AdjustedEdge:    rawEdge * decay,
		AdjustedSize:    baseSize / volMult,
		MinEdgeRequired: minEdge,
		EdgeEfficiency:  efficiency(rawEdge, minEdge),
	}
	adj.Tier = timingTier(adj.EdgeEfficiency, daysRemaining, params)

	// 1. Check de tiempo: dentro de la ventana de no-trade nada entra,
	// da igual el edge.
	if daysRemaining <= params.NoTradeDays {
		adj.Decision = DecisionRejectTime
		adj.Reason = fmt.Sprintf("%.2f días a resolución (mínimo %.2f)", daysRemaining, params.NoTradeDays)
		return adj
	}

	// 2. Check de edge: el edge ya decaído tiene que superar al menos el
	// suelo base. El mínimo escalado por volatilidad lo aplica el tier.
	if math.Abs(adj.AdjustedEdge) < params.BaseMinEdge {
		adj.Decision = DecisionRejectEdge
		adj.Reason = fmt.Sprintf("edge ajustado %.3f bajo el mínimo %.3f", adj.AdjustedEdge, params.BaseMinEdge)
		return adj
	}

	// 3. Check de timing tier contra el mínimo escalado.
	if adj.Tier == TierSkip {
		adj.Decision = DecisionRejectTiming
		adj.Reason = "eficiencia de edge insuficiente para el horizonte"
		return adj
	}

	if adj.Tier == TierEnterSmall {
		adj.AdjustedSize /= 2
	}
	adj.Decision = DecisionAccept
	// WAIT acepta la señal pero recomienda no entrar todavía: el edge no
	// cubre el mínimo escalado y queda horizonte de sobra para reevaluar.
	adj.ShouldTrade = adj.Tier != TierWait
	return adj
}

// timingTier deriva el tier desde la eficiencia del edge:
// rawEdge / minEdgeRequired. WAIT solo tiene sentido con horizonte de sobra.
func timingTier(eff, daysRemaining float64, params TimeWeightParams) TimingTier {
	switch {
	case eff >= 2.0:
		return TierEnterNowStrong
	case eff >= 1.2:
		return TierEnterNow
	case eff >= 1.0:
		return TierEnterSmall
	case daysRemaining > params.WaitHorizonDays:
		return TierWait
	default:
		return TierSkip
	}
}

func efficiency(rawEdge, minEdge float64) float64 {
	if minEdge <= 0 {
		return 0
	}
	return math.Abs(rawEdge) / minEdge
}
