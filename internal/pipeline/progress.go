package pipeline

// Phase labels the position of a submission run. Phases advance in the fixed
// order below; the label is updated before the step it names executes. The
// progression is an observable contract for progress consumers.
type Phase string

const (
	PhaseUploading      Phase = "uploading"
	PhaseConverting     Phase = "converting"
	PhaseUploadingImage Phase = "uploading-image"
	PhasePreparing      Phase = "preparing"
	PhaseAnalyzing      Phase = "analyzing"
	PhaseComplete       Phase = "complete"
	PhaseFailed         Phase = "failed"
)

// ProgressFunc receives phase transitions during one run. The detail string
// carries the resume id on completion and the error message on failure.
// Progress exists only for the duration of the run; nothing is persisted.
type ProgressFunc func(phase Phase, detail string)

func (f ProgressFunc) report(phase Phase, detail string) {
	if f != nil {
		f(phase, detail)
	}
}
