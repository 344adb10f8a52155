package aggregates

import (
	"fmt"
	"strings"
)

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: every write method runs in its own transaction
	// from the aggregate's TxRunner. Services never pass a tx in.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy bounds which reads an aggregate performs.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the reads a write needs to check its
	// invariants. List and progress views go straight to the table repos.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract describes how a learning aggregate owns its writes.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is implemented by every aggregate the app wires.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// ValidateContracts rejects aggregates without a name, with a duplicate name,
// or whose writes do not own their transaction. The app calls it once at
// wiring time.
func ValidateContracts(aggs ...Aggregate) error {
	seen := map[string]bool{}
	for i, agg := range aggs {
		if agg == nil {
			return fmt.Errorf("aggregate %d is nil", i)
		}
		c := agg.Contract()
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("aggregate %d has no contract name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate aggregate contract %q", name)
		}
		seen[name] = true
		if !c.RequiresAggregateOwnedTx() {
			return fmt.Errorf("aggregate %s: writes must own their transaction, got %q", name, c.WriteTxOwnership)
		}
		if c.ReadPolicy != ReadPolicyInvariantScoped {
			return fmt.Errorf("aggregate %s: unsupported read policy %q", name, c.ReadPolicy)
		}
	}
	return nil
}
