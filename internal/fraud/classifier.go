// Package fraud classifies claim records as clean, suspicious or fraudulent
// through an ordered rule chain. The first rule that fires decides the verdict.
package fraud

import (
	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/reference"
)

// Verdict is the outcome of a classification.
type Verdict struct {
	Status constants.FraudStatus
	Reason string
	// Rule names the rule that fired; empty for clean claims.
	Rule string
}

// ReasonClean is the reason attached to claims that pass every rule.
const ReasonClean = "All checks passed - claim appears legitimate"

// evaluation is the per-claim state shared by the rules.
type evaluation struct {
	rec    claim.Record
	tables *reference.Tables
	opts   Options

	// set by the hospital identity rule, read by the average-cost rule
	hospital   reference.HospitalRow
	hasMatched bool
}

type rule struct {
	name   string
	status constants.FraudStatus
	check  func(*evaluation) (reason string, fired bool)
}

// Classifier is stateless apart from its options and safe for concurrent use.
type Classifier struct {
	opts  Options
	rules []rule
}

func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts, rules: chain()}
}

// Options returns the thresholds in effect.
func (c *Classifier) Options() Options { return c.opts }

// RuleNames lists the rules in evaluation order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.name
	}
	return names
}

// Classify runs the chain against a trimmed copy of rec. It never fails:
// missing or malformed data shows up as a verdict. tables is only read.
func (c *Classifier) Classify(rec claim.Record, tables *reference.Tables) Verdict {
	ev := &evaluation{rec: rec.Trimmed(), tables: tables, opts: c.opts}
	for _, r := range c.rules {
		if reason, fired := r.check(ev); fired {
			return Verdict{Status: r.status, Reason: reason, Rule: r.name}
		}
	}
	return Verdict{Status: constants.StatusClean, Reason: ReasonClean}
}

// Apply classifies rec and merges the verdict into a Result.
func (c *Classifier) Apply(rec claim.Record, tables *reference.Tables) claim.Result {
	rec = rec.Trimmed()
	v := c.Classify(rec, tables)
	return claim.Result{
		Record:      rec,
		FraudStatus: v.Status,
		FraudReason: v.Reason,
		FraudRule:   v.Rule,
	}
}
