// Package assign ranks maintenance technicians for an incident and
// picks the best fit.
//
// The score is a weighted blend of five normalised factors: specialty
// match, experience, current workload, location proximity and rolling
// historical performance. Ranking is deterministic for identical inputs;
// ties break on lower workload, then on technician ID. The engine never
// mutates technician state: it emits a workload delta instruction that
// the data store applies atomically.
package assign
