package models

// Sentiment classifies a verdict as actionable, watch-only or avoid.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Horizon selects which rule cascade and entry profile a scan uses.
type Horizon string

const (
	HorizonIntraday Horizon = "intraday"
	HorizonSwing    Horizon = "swing"
	HorizonLongTerm Horizon = "longterm"
)

// Valid reports whether h is a known horizon.
func (h Horizon) Valid() bool {
	switch h {
	case HorizonIntraday, HorizonSwing, HorizonLongTerm:
		return true
	default:
		return false
	}
}

// Verdict is the classification produced by a rule cascade.
type Verdict struct {
	Label     string    `json:"label"`
	Sentiment Sentiment `json:"sentiment"`
	Reasons   []string  `json:"reasons"`
	// Rule names the cascade rule that matched.
	Rule string `json:"rule"`
}

func (v Verdict) IsPositive() bool { return v.Sentiment == SentimentPositive }
