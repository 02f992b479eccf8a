package density

import (
	"strings"

	"github.com/pkg/errors"
)

// Solute selects one of the built-in reference systems.
type Solute int

const (
	NaCl Solute = iota + 1
	Sucrose
)

// Molar masses in g/mol.
const (
	NaClMolarMass    = 58.443
	SucroseMolarMass = 342.2965
)

// Reference measurements. Arrays are never written after initialization;
// tables built from them copy the values.
var (
	naclTemperatures = [...]float64{20.0, 25.0, 30.0, 40.0}
	naclMolalities   = [...]float64{0.100, 0.250, 0.500, 0.750, 1.000, 2.000, 3.000, 4.000, 5.000}

	// Specific volumes in mL/g, one row per temperature.
	naclSpecificVolumes = [len(naclTemperatures)][len(naclMolalities)]float64{
		{0.997620, 0.991564, 0.981833, 0.972505, 0.963544, 0.930909, 0.902565, 0.877643, 0.855469}, // 20 °C
		{0.998834, 0.992832, 0.983185, 0.973932, 0.965038, 0.932590, 0.904339, 0.879457, 0.857301}, // 25 °C
		{1.000279, 0.994319, 0.984735, 0.975539, 0.966694, 0.934382, 0.906194, 0.881334, 0.859185}, // 30 °C
		{1.003796, 0.997883, 0.988374, 0.979243, 0.970455, 0.938287, 0.910145, 0.885276, 0.863108}, // 40 °C
	}

	sucroseMolalities = [...]float64{
		0.015, 0.030, 0.060, 0.090, 0.122, 0.154, 0.186, 0.220, 0.254, 0.289,
		0.325, 0.398, 0.476, 0.556, 0.641, 0.730, 0.824, 0.923, 1.026, 1.136,
		1.252, 1.375, 1.505, 1.643, 1.791, 1.948, 2.116, 2.295, 2.489, 2.697,
		2.921, 4.382, 6.817, 11.686,
	}
	// Densities in g/mL at room temperature.
	sucroseDensities = [len(sucroseMolalities)]float64{
		1.0002, 1.0021, 1.0060, 1.0099, 1.0139, 1.0178, 1.0218, 1.0259, 1.0299, 1.0340,
		1.0381, 1.0465, 1.0549, 1.0635, 1.0722, 1.0810, 1.0899, 1.0990, 1.1082, 1.1175,
		1.1270, 1.1366, 1.1464, 1.1562, 1.1663, 1.1765, 1.1868, 1.1972, 1.2079, 1.2186,
		1.2295, 1.2864, 1.3472, 1.4117,
	}
)

// Solutes lists the built-in solutes.
func Solutes() []Solute {
	return []Solute{NaCl, Sucrose}
}

func (s Solute) String() string {
	switch s {
	case NaCl:
		return "nacl"
	case Sucrose:
		return "sucrose"
	default:
		return "unknown"
	}
}

// ParseSolute accepts the names printed by String, case-insensitively, plus
// a few common aliases.
func ParseSolute(name string) (Solute, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nacl", "sodium-chloride", "sodium_chloride", "salt":
		return NaCl, nil
	case "sucrose", "sugar":
		return Sucrose, nil
	}
	return 0, errors.Errorf("unknown solute %q (want nacl or sucrose)", name)
}

func (s Solute) MarshalText() ([]byte, error) {
	if s != NaCl && s != Sucrose {
		return nil, errors.Errorf("unknown solute %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Solute) UnmarshalText(text []byte) error {
	v, err := ParseSolute(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MolarMass in g/mol.
func (s Solute) MolarMass() float64 {
	switch s {
	case NaCl:
		return NaClMolarMass
	case Sucrose:
		return SucroseMolarMass
	}
	return 0
}

// Model returns the model family fitted for s.
func (s Solute) Model() (Model, error) {
	switch s {
	case NaCl:
		return TemperatureRatioModel(), nil
	case Sucrose:
		return RatioModel(), nil
	}
	return Model{}, errors.Errorf("unknown solute %d", int(s))
}

// Table builds the reference table for s. NaCl densities are the reciprocals
// of the tabulated specific volumes; molalities are converted to mass ratios.
func (s Solute) Table() (*DataTable, error) {
	switch s {
	case NaCl:
		rows := make([]Point, 0, len(naclTemperatures)*len(naclMolalities))
		for i, t := range naclTemperatures {
			for j, molality := range naclMolalities {
				rows = append(rows, Point{
					X:       []float64{t, MassRatio(molality, NaClMolarMass)},
					Density: 1.0 / naclSpecificVolumes[i][j],
				})
			}
		}
		return NewDataTable(s.String(), 2, rows)
	case Sucrose:
		rows := make([]Point, len(sucroseMolalities))
		for i, molality := range sucroseMolalities {
			rows[i] = Point{
				X:       []float64{MassRatio(molality, SucroseMolarMass)},
				Density: sucroseDensities[i],
			}
		}
		return NewDataTable(s.String(), 1, rows)
	}
	return nil, errors.Errorf("unknown solute %d", int(s))
}
