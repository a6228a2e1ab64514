/*
types.go - Core types for the points engine

KEY CONCEPTS IN THIS FILE:
  - Points: A signed decimal point quantity (0.5, 1.0, -2.0)
  - PointEvent: An immutable ledger entry (one infraction or adjustment)
  - Employee: Directory record plus the cached aggregate
  - Status: Risk classification derived from the running total

DESIGN PRINCIPLES:
  1. Immutability: Events are inserted or deleted, never edited
  2. Precision: decimal.Decimal for every magnitude and total; float64
     exists only at I/O boundaries
  3. Derivability: the Employee aggregate is a materialized view of the
     event history, recomputed wholesale on every mutation

SEE ALSO:
  - ledger.go: Event insertion/deletion and aggregate recomputation
  - policy.go: Status bands and due-date derivations
*/
package points

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Signed decimal quantity
// =============================================================================

type Points struct {
	Value decimal.Decimal
}

func NewPoints(value float64) Points {
	return Points{Value: decimal.NewFromFloat(value)}
}

func ZeroPoints() Points {
	return Points{Value: decimal.Zero}
}

// ParsePoints parses a decimal string ("1.5", "-2"). Used at the CLI and
// roster-import boundaries.
func ParsePoints(s string) (Points, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Points{}, err
	}
	return Points{Value: d}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p Points) Add(q Points) Points       { return Points{Value: p.Value.Add(q.Value)} }
func (p Points) Sub(q Points) Points       { return Points{Value: p.Value.Sub(q.Value)} }
func (p Points) Neg() Points               { return Points{Value: p.Value.Neg()} }
func (p Points) IsNegative() bool          { return p.Value.IsNegative() }
func (p Points) IsZero() bool              { return p.Value.IsZero() }
func (p Points) IsPositive() bool          { return p.Value.IsPositive() }
func (p Points) GreaterThan(q Points) bool { return p.Value.GreaterThan(q.Value) }
func (p Points) LessThan(q Points) bool    { return p.Value.LessThan(q.Value) }
func (p Points) Equal(q Points) bool       { return p.Value.Equal(q.Value) }

// String renders the canonical storage form ("1.5", "-2", "0").
func (p Points) String() string { return p.Value.String() }

// Display renders with one decimal place for reports ("1.5", "-2.0").
func (p Points) Display() string { return p.Value.StringFixed(1) }

func formatPointsList(vals []Points) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EmployeeID is caller-assigned, positive, and unique. Never auto-generated.
type EmployeeID int64

func (id EmployeeID) String() string { return strconv.FormatInt(int64(id), 10) }

// EventID is the storage-assigned surrogate key of a ledger entry.
type EventID int64

func (id EventID) String() string { return strconv.FormatInt(int64(id), 10) }

// =============================================================================
// POINT EVENT - Immutable ledger entry
// =============================================================================

// Flag codes carried by system-generated entries. User entries may carry
// any free-text flag or none.
const (
	FlagAuto   = "AUTO" // aggregated roll-off deduction written by the engine
	FlagManual = "ADJ"  // manual administrative adjustment
)

// PointEvent is one immutable fact: an infraction (positive magnitude) or
// an adjustment (negative, always flagged). Events are never mutated in
// place; corrections happen by deletion plus recompute or by compensating
// entries.
type PointEvent struct {
	ID         EventID
	EmployeeID EmployeeID
	Date       PointDate
	Magnitude  Points
	Reason     string
	Note       string
	FlagCode   string
}

// =============================================================================
// EMPLOYEE - Directory record plus cached aggregate
// =============================================================================

// Employee holds the directory fields and the aggregate view. The aggregate
// (Total, LastInfraction, RolloffDue, PerfectDue) is always re-derivable
// from the event history; ledger.go recomputes it on every mutation.
type Employee struct {
	ID        EmployeeID
	LastName  string
	FirstName string
	Active    bool

	Total          Points
	LastInfraction PointDate // anchor: max date among positive events
	RolloffDue     PointDate
	PerfectDue     PointDate
	WarningIssued  PointDate // set manually by HR, not derived
}

// DisplayName renders "Last, First" as the directory lists it.
func (e Employee) DisplayName() string {
	return e.LastName + ", " + e.FirstName
}

// =============================================================================
// STATUS - Risk classification
// =============================================================================

type Status string

const (
	StatusSafe        Status = "Safe"
	StatusWarning     Status = "Warning"
	StatusCritical    Status = "Critical"
	StatusTermination Status = "Termination Risk"
)
