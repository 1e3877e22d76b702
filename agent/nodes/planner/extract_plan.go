package plannernode

import (
	"fmt"

	"github.com/planweave/planweave/agent/contract"
	"github.com/planweave/planweave/agent/extract"
)

// ExtractPlan turns the final model content into a structured plan. Extraction
// is total, so this node never fails once validation has passed.
func ExtractPlan(in *GraphState, extractor *extract.Extractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}
	in.Plan = extractor.Extract(in.FinalContent)
	return in, nil
}
