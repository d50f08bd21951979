package scraper

import (
	"context"
	"fmt"
	"time"
)

// StepKind identifies one discrete browser operation.
type StepKind string

const (
	StepNavigate StepKind = "navigate"
	StepScroll   StepKind = "scroll"
	StepWait     StepKind = "wait"
	StepExtract  StepKind = "extract"
)

// Step is one operation in a scrape plan. Only the fields relevant to
// its Kind are set; the New*Step constructors validate at construction
// so the runner never has to.
type Step struct {
	Kind StepKind

	// WaitSelector is the CSS selector a navigate step waits for
	// before reporting success.
	WaitSelector string

	// Delay is how long a scroll or wait step lets the page settle.
	Delay time.Duration

	// Timeout bounds this single step.
	Timeout time.Duration
}

// NewNavigateStep builds a navigation step that waits for waitSelector
// after the page load commits.
func NewNavigateStep(waitSelector string, timeout time.Duration) (Step, error) {
	if waitSelector == "" {
		return Step{}, fmt.Errorf("navigate step: wait selector must not be empty")
	}
	if timeout <= 0 {
		return Step{}, fmt.Errorf("navigate step: timeout must be positive")
	}
	return Step{Kind: StepNavigate, WaitSelector: waitSelector, Timeout: timeout}, nil
}

// NewScrollStep builds a scroll-to-bottom step with a settle delay for
// lazy-loaded content.
func NewScrollStep(delay, timeout time.Duration) (Step, error) {
	if delay < 0 {
		return Step{}, fmt.Errorf("scroll step: delay must not be negative")
	}
	if timeout <= 0 {
		return Step{}, fmt.Errorf("scroll step: timeout must be positive")
	}
	return Step{Kind: StepScroll, Delay: delay, Timeout: timeout}, nil
}

// NewWaitStep builds an idle-wait step.
func NewWaitStep(delay time.Duration) (Step, error) {
	if delay <= 0 {
		return Step{}, fmt.Errorf("wait step: delay must be positive")
	}
	return Step{Kind: StepWait, Delay: delay, Timeout: delay + time.Second}, nil
}

// NewExtractStep builds an explicit HTML extraction step.
func NewExtractStep(timeout time.Duration) (Step, error) {
	if timeout <= 0 {
		return Step{}, fmt.Errorf("extract step: timeout must be positive")
	}
	return Step{Kind: StepExtract, Timeout: timeout}, nil
}

// Capture is what one step reports back. HTML is empty for steps that
// only mutate page state (scroll, wait).
type Capture struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// Capturer executes a single step against a live browser session.
// Implementations must honor ctx cancellation.
type Capturer interface {
	Capture(ctx context.Context, sess *Session, url string, step Step) (*Capture, error)
}

// StepState is the accumulated outcome of a step sequence.
type StepState struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// RunSteps executes the plan strictly in order against one session.
//
// Each step captures against the current URL, carrying redirects
// forward from the previous step. FinalURL and StatusCode take the
// step's report after every step; a step reporting an empty URL or a
// zero status keeps the last known value, so a failed in-page reading
// cannot clobber the redirect chain. HTML updates only when the step
// reports content, so intermediate scroll/wait steps need not
// re-extract. The first step failure aborts the sequence with no
// partial result.
func RunSteps(ctx context.Context, capturer Capturer, sess *Session, url string, steps []Step) (StepState, error) {
	state := StepState{FinalURL: url}

	for i, step := range steps {
		stepCtx := ctx
		var cancel context.CancelFunc
		if step.Timeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		}

		result, err := capturer.Capture(stepCtx, sess, state.FinalURL, step)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			return StepState{}, fmt.Errorf("step %d (%s) failed: %w", i+1, step.Kind, err)
		}

		if result.HTML != "" {
			state.HTML = result.HTML
		}
		if result.FinalURL != "" {
			state.FinalURL = result.FinalURL
		}
		if result.StatusCode != 0 {
			state.StatusCode = result.StatusCode
		}
	}

	return state, nil
}
