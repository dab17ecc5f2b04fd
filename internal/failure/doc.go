// Package failure predicts equipment failure from static equipment
// attributes and a window of recent telemetry.
//
// The statistical side is a pluggable Model capability; the default is
// a logistic regression trained on fleet maintenance history. On top of
// the model, a Predictor adds two explicit heuristics: a channel
// threshold rule table that names the likely failure mode, and a step
// function that maps probability to an estimated time-to-failure
// horizon. Callers that need a probability before any training has
// happened get ErrModelUnavailable instead of a guess.
package failure
