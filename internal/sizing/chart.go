package sizing

type Dimension string

const (
	Bust         Dimension = "bust"
	Waist        Dimension = "waist"
	Hip          Dimension = "hip"
	Length       Dimension = "length"
	SleeveLength Dimension = "sleeve_length"
	Shoulder     Dimension = "shoulder"
)

// Dimensions lists every measured dimension in size chart order.
var Dimensions = []Dimension{Bust, Waist, Hip, Length, SleeveLength, Shoulder}

const ChartNote = "All measurements are in inches. Ranges indicate the garment can accommodate measurements within that span."

func (d Dimension) Label() string {
	switch d {
	case Bust:
		return "Bust Size (inches)"
	case Waist:
		return "Waist Size (inches)"
	case Hip:
		return "Hip Size (inches)"
	case Length:
		return "Length (inches)"
	case SleeveLength:
		return "Sleeve Length (inches)"
	case Shoulder:
		return "Shoulder (inches)"
	}
	return string(d)
}

// SizeHistory holds the raw values recorded per dimension.
type SizeHistory map[Dimension][]string

type ChartSection struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	Values    []string  `json:"values"`
}

// BuildSizeChart drops dimensions that have nothing to show.
func BuildSizeChart(history SizeHistory) []ChartSection {
	sections := make([]ChartSection, 0, len(Dimensions))
	for _, d := range Dimensions {
		values := FormatSizeDisplay(history[d])
		if len(values) == 0 {
			continue
		}
		sections = append(sections, ChartSection{
			Dimension: d,
			Label:     d.Label(),
			Values:    values,
		})
	}
	return sections
}
