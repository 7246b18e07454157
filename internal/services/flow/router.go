package flow

import "precificador/internal/domain"

const precedenceNote = "codeA and codeB both present: codeA (CA) takes precedence"

// Route maps code presence to a flow. It is total over the four input states.
func Route(hasCodeA, hasCodeB bool) domain.Flow {
	switch {
	case hasCodeA && !hasCodeB:
		return domain.FlowA
	case hasCodeB && !hasCodeA:
		return domain.FlowC
	case !hasCodeA && !hasCodeB:
		return domain.FlowB
	default:
		// CA wins when both are present.
		return domain.FlowA
	}
}

// Decide builds the flow decision for scanned codes.
func Decide(scan ScanResult) domain.FlowDecision {
	hasA, hasB := scan.CodeA != "", scan.CodeB != ""
	d := domain.FlowDecision{
		Flow:          Route(hasA, hasB),
		ResolvedCodeA: scan.CodeA,
		ResolvedCodeB: scan.CodeB,
		CodeBDerived:  scan.CodeBDerived,
	}
	if hasA && hasB {
		d.PrecedenceNote = precedenceNote
	}
	return d
}
