package model

import "time"

// Direction of an anomalous score relative to the student's baseline.
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionSpike Direction = "spike"
	DirectionDrop  Direction = "drop"
)

// AlertLevel of an anomaly verdict.
type AlertLevel string

const (
	AlertNormal  AlertLevel = "normal"
	AlertWarning AlertLevel = "warning"
)

// AlertType names the shape problem found in a cohort distribution.
type AlertType string

const (
	AlertNone       AlertType = "none"
	AlertInflation  AlertType = "inflation"
	AlertDeflation  AlertType = "deflation"
	AlertClustering AlertType = "clustering"
)

// Significance class of a correlation coefficient.
type Significance string

const (
	SignificanceCritical Significance = "critical"
	SignificanceModerate Significance = "moderate"
	SignificanceLow      Significance = "low"
)

// RiskLevel is the bucketed dropout-risk probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Impact of a contributing risk factor.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
)

// PatternKind identifies which mining pass produced a match.
type PatternKind string

const (
	PatternDayOfWeek     PatternKind = "day_of_week"
	PatternConsecutive   PatternKind = "consecutive"
	PatternAfterWeekend  PatternKind = "after_weekend"
	PatternBeforeWeekend PatternKind = "before_weekend"
)

// AnomalyVerdict is the outcome of comparing a new score with a student's history.
type AnomalyVerdict struct {
	IsAnomaly      bool       `json:"is_anomaly"`
	ZScore         float64    `json:"z_score"`
	Direction      Direction  `json:"direction"`
	HistoricalMean float64    `json:"historical_mean"`
	HistoricalStd  float64    `json:"historical_std"`
	WindowSize     int        `json:"window_size"`
	AlertLevel     AlertLevel `json:"alert_level"`
	Recommendation string     `json:"recommendation,omitempty"`
	Status         Status     `json:"status"`
	Note           string     `json:"note,omitempty"`
}

// HistogramBin counts cohort scores within [Low, High). The last bin is closed.
type HistogramBin struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// DistributionReport describes the shape and health of one exam's grades.
type DistributionReport struct {
	Count          int            `json:"count"`
	Mean           float64        `json:"mean"`
	Median         float64        `json:"median"`
	StdDev         float64        `json:"std_dev"`
	Min            float64        `json:"min"`
	Max            float64        `json:"max"`
	Skewness       float64        `json:"skewness"`
	Kurtosis       float64        `json:"kurtosis"`
	PValue         float64        `json:"p_value"`
	IsNormal       bool           `json:"is_normal"`
	IsHealthy      bool           `json:"is_healthy"`
	AlertType      AlertType      `json:"alert_type"`
	Recommendation string         `json:"recommendation,omitempty"`
	Histogram      []HistogramBin `json:"histogram"`
	Status         Status         `json:"status"`
	Note           string         `json:"note,omitempty"`
}

// CorrelationResult is the attendance-vs-grade association for one subject.
type CorrelationResult struct {
	Subject        string       `json:"subject"`
	PearsonR       float64      `json:"pearson_r"`
	PValue         float64      `json:"p_value"`
	Significance   Significance `json:"significance"`
	Observations   int          `json:"observations"`
	Interpretation string       `json:"interpretation"`
	Status         Status       `json:"status"`
	Note           string       `json:"note,omitempty"`
}

// Factor is one condition that pushed a student's risk upwards.
type Factor struct {
	Factor string `json:"factor"`
	Value  string `json:"value"`
	Impact Impact `json:"impact"`
}

// RiskVerdict is the dropout-risk score for one feature vector.
type RiskVerdict struct {
	RiskLevel           RiskLevel `json:"risk_level"`
	Probability         float64   `json:"probability"`
	LogOdds             float64   `json:"log_odds"`
	ContributingFactors []Factor  `json:"contributing_factors"`
	RecommendedActions  []string  `json:"recommended_actions"`
	Status              Status    `json:"status"`
}

// PatternMatch is one recurring absence pattern.
type PatternMatch struct {
	PatternType string      `json:"pattern_type"`
	Kind        PatternKind `json:"kind"`
	Confidence  float64     `json:"confidence"`
	Occurrences int         `json:"occurrences"`
	SampleDates []Date      `json:"sample_dates"`
}

// PatternReport holds every pattern surfaced for one attendance log.
type PatternReport struct {
	Patterns       []PatternMatch `json:"patterns"`
	AnalysisPeriod string         `json:"analysis_period"`
	Status         Status         `json:"status"`
}

// StudentAssessment bundles every per-student verdict produced in one pass.
type StudentAssessment struct {
	AssessmentID string              `json:"assessment_id"`
	StudentID    string              `json:"student_id"`
	AssessedAt   time.Time           `json:"assessed_at"`
	Features     FeatureVector       `json:"features"`
	Anomaly      *AnomalyVerdict     `json:"anomaly,omitempty"`
	Correlations []CorrelationResult `json:"correlations"`
	Patterns     PatternReport       `json:"patterns"`
	Risk         RiskVerdict         `json:"risk"`
}

// WatchlistEntry is a student's position in the risk ranking.
type WatchlistEntry struct {
	StudentID   string    `json:"student_id"`
	Probability float64   `json:"probability"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Rank        int       `json:"rank"`
	UpdatedAt   time.Time `json:"updated_at"`
}
