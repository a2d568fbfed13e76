package resume

// Status values for a stored resume. A record stays in StatusDraft until the
// analysis result has been parsed and persisted; readers must use Status, not
// the scores, to tell a placeholder apart from a real all-zero analysis.
const (
	StatusDraft    = "draft"
	StatusAnalyzed = "analyzed"
)

// Tip types produced by the analysis service.
const (
	TipGood    = "good"
	TipImprove = "improve"
)

// Resume ties a submitted document, its derived image, the job context and
// the analysis feedback together under one id.
type Resume struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"ownerId"`
	CompanyName    string   `json:"companyName"`
	JobTitle       string   `json:"jobTitle"`
	JobDescription string   `json:"jobDescription"`
	ResumePath     string   `json:"resumePath"`
	ImagePath      string   `json:"imagePath"`
	Status         string   `json:"status"`
	Feedback       Feedback `json:"feedback"`
}

// Feedback is the structured scoring result of the analysis service.
type Feedback struct {
	OverallScore float64  `json:"overallScore"`
	ATS          Category `json:"ATS"`
	ToneAndStyle Category `json:"toneAndStyle"`
	Content      Category `json:"content"`
	Structure    Category `json:"structure"`
	Skills       Category `json:"skills"`
}

// Category is one scored dimension with an ordered list of tips.
type Category struct {
	Score float64 `json:"score"`
	Tips  []Tip   `json:"tips"`
}

// Tip is a single piece of advice, either praise or an improvement hint.
type Tip struct {
	Type string `json:"type"`
	Tip  string `json:"tip"`
}

// PlaceholderFeedback returns the all-zero feedback a resume is saved with
// before analysis completes.
func PlaceholderFeedback() Feedback {
	return Feedback{
		ATS:          Category{Tips: []Tip{}},
		ToneAndStyle: Category{Tips: []Tip{}},
		Content:      Category{Tips: []Tip{}},
		Structure:    Category{Tips: []Tip{}},
		Skills:       Category{Tips: []Tip{}},
	}
}
