package enrich

import "time"

// Status is the per-record outcome of a run.
type Status string

const (
	StatusSkipped    Status = "skipped"
	StatusClassified Status = "classified"
	StatusFailed     Status = "failed"
)

// Outcome records what happened to one record.
type Outcome struct {
	Name       string   `json:"name" yaml:"name"`
	Status     Status   `json:"status" yaml:"status"`
	Region     string   `json:"region,omitempty" yaml:"region,omitempty"`
	Candidates []string `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Total      int       `json:"total" yaml:"total"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Classified int       `json:"classified" yaml:"classified"`
	Failed     int       `json:"failed" yaml:"failed"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

func newReport(total int) *Report {
	return &Report{
		Total:     total,
		Outcomes:  make([]Outcome, 0, total),
		StartedAt: time.Now(),
	}
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusSkipped:
		r.Skipped++
	case StatusClassified:
		r.Classified++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
}

// Processed is the number of records that reached an outcome.
func (r *Report) Processed() int {
	return len(r.Outcomes)
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
