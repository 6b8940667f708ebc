package standardizer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Unit centers every column on its mean and scales it to unit (population)
// variance. Missing values, and every value of a constant column, become 0.
type Unit struct{}

func (Unit) Standardize(val *mat.Dense) (Standardizer, error) {
	trained := UnitTrained{Stats: columnStats(val)}
	return trained.Standardize(val)
}

func (Unit) String() string {
	return "Unit()"
}

// UnitTrained applies fixed per-column means and standard deviations.
type UnitTrained struct {
	Stats []ColumnStats
}

func (s UnitTrained) Standardize(val *mat.Dense) (Standardizer, error) {
	if _, cols := val.Dims(); cols != len(s.Stats) {
		return nil, fmt.Errorf("%s: trained on %d variants but given %d", s, len(s.Stats), cols)
	}

	for j, st := range s.Stats {
		scale := 0.0
		if st.StdDev > 0 {
			scale = 1 / st.StdDev
		}
		centerAndScale(val, j, st.Mean, scale)
	}

	return s, nil
}

func (s UnitTrained) ColumnCount() int {
	return len(s.Stats)
}

func (s UnitTrained) Columns(start, stop int) (Standardizer, error) {
	if err := checkColumns(s, start, stop, len(s.Stats)); err != nil {
		return nil, err
	}
	return UnitTrained{Stats: s.Stats[start:stop]}, nil
}

func (s UnitTrained) String() string {
	return fmt.Sprintf("UnitTrained(%d variants)", len(s.Stats))
}
