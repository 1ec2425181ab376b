package elo

import "math"

// KFactorRule задаёт K-фактор для рейтингов, начиная с порога Threshold.
type KFactorRule struct {
	Threshold float64 `json:"threshold"`
	K         float64 `json:"k"`
}

// Config — параметры рейтинговой модели.
// KFactorRules должны быть отсортированы по возрастанию Threshold.
type Config struct {
	PerformanceConstant float64
	DefaultK            float64
	KFactorRules        []KFactorRule
	MinRating           float64
	MaxRating           float64 // 0 означает "без верхней границы"
	DisableRounding     bool
}

const defaultPerformanceConstant = 400

// Engine реализует Elo-подобную рейтинговую модель. Все методы — чистые
// функции: некорректные числовые входы прижимаются к [MinRating, MaxRating],
// а не отклоняются.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.PerformanceConstant <= 0 {
		cfg.PerformanceConstant = defaultPerformanceConstant
	}
	if cfg.MaxRating <= 0 {
		cfg.MaxRating = math.Inf(1)
	}
	return &Engine{cfg: cfg}
}

// ExpectedScore возвращает ожидаемый исход для рейтинга a против рейтинга b.
func (e *Engine) ExpectedScore(a, b float64) float64 {
	a = e.Clamp(a)
	b = e.Clamp(b)
	return 1 / (1 + math.Pow(10, (b-a)/e.cfg.PerformanceConstant))
}

// KFactor возвращает K-фактор наибольшего порога, не превышающего rating,
// либо DefaultK, если ни один порог не подходит.
func (e *Engine) KFactor(rating float64) float64 {
	k := e.cfg.DefaultK
	for _, rule := range e.cfg.KFactorRules {
		if rule.Threshold > rating {
			break
		}
		k = rule.K
	}
	return k
}

// NewRating вычисляет новый рейтинг по ожидаемому и фактическому исходу.
// Результат прижимается к допустимому диапазону и округляется до целого,
// если округление не отключено конфигурацией.
func (e *Engine) NewRating(expected, actual, current float64) float64 {
	current = e.Clamp(current)
	next := e.Clamp(current + e.KFactor(current)*(actual-expected))
	if e.cfg.DisableRounding {
		return next
	}
	return math.Round(next)
}

// Clamp прижимает рейтинг к [MinRating, MaxRating].
func (e *Engine) Clamp(rating float64) float64 {
	if rating < e.cfg.MinRating {
		return e.cfg.MinRating
	}
	if rating > e.cfg.MaxRating {
		return e.cfg.MaxRating
	}
	return rating
}
