package shap

import "github.com/finshield/mlengine/internal/domain"

// expectedValue is the recursive unweighted average of leaf values below
// n, ignoring how many training samples actually reached each leaf. This
// is what makes the walk below an approximation rather than exact
// TreeSHAP: true coverage weights are never computed.
func expectedValue(n *domain.Node) float64 {
	if n.Kind == domain.NodeLeaf {
		return n.Value
	}
	return (expectedValue(n.Left) + expectedValue(n.Right)) / 2
}

// ExplainTree walks the single path a sample takes from root to leaf.
// baseline is the unweighted expected value at the root; at each split
// along the path, the split's feature is credited with the change in
// expected value between parent and the child actually taken.
func ExplainTree(root *domain.Node, x []float64, nFeatures int) (baseline float64, contributions []float64) {
	baseline = expectedValue(root)
	contributions = make([]float64, nFeatures)

	cur := root
	parentExpected := baseline
	for cur.Kind == domain.NodeSplit {
		var child *domain.Node
		if x[cur.FeatureIndex] <= cur.Threshold {
			child = cur.Left
		} else {
			child = cur.Right
		}
		childExpected := expectedValue(child)
		contributions[cur.FeatureIndex] += childExpected - parentExpected
		parentExpected = childExpected
		cur = child
	}
	return baseline, contributions
}
