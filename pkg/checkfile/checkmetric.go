package checkfile

import (
	"bytes"
	"fmt"

	"github.com/consol-monitoring/check_file/pkg/convert"
	"github.com/consol-monitoring/check_file/pkg/threshold"
)

// CheckMetric contains a single performance value.
type CheckMetric struct {
	Name     string
	Unit     string
	Value    float64
	Warning  *threshold.Range // threshold used for warnings
	Critical *threshold.Range // threshold used for critical
}

// String returns the performance data: 'name'=value;warn;crit
// Unset thresholds stay empty, trailing separators are kept.
func (m *CheckMetric) String() string {
	var res bytes.Buffer

	res.WriteString(fmt.Sprintf("'%s'=%s%s", m.Name, convert.Num2String(m.Value), m.Unit))

	res.WriteString(";")
	if m.Warning != nil {
		res.WriteString(m.Warning.String())
	}

	res.WriteString(";")
	if m.Critical != nil {
		res.WriteString(m.Critical.String())
	}

	return res.String()
}
