package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title        string    `yaml:"Title"`
	Family       string    `yaml:"Family"` // one of simple, tikhonov, sparse
	Hx           []float64 `yaml:"Hx"`     // cell widths per axis; empty Hy/Hz lower the dimension
	Hy           []float64 `yaml:"Hy"`
	Hz           []float64 `yaml:"Hz"`
	ActiveCells  []bool    `yaml:"ActiveCells"` // empty means all cells active
	AlphaS       float64   `yaml:"AlphaS"`
	AlphaX       float64   `yaml:"AlphaX"`
	AlphaY       float64   `yaml:"AlphaY"`
	AlphaZ       float64   `yaml:"AlphaZ"`
	AlphaXX      float64   `yaml:"AlphaXX"`
	AlphaYY      float64   `yaml:"AlphaYY"`
	AlphaZZ      float64   `yaml:"AlphaZZ"`
	Norms        []float64 `yaml:"Norms"` // sparse family: exponents on (m, dmdx, dmdy, dmdz)
	EpsP         float64   `yaml:"EpsP"`
	EpsQ         float64   `yaml:"EpsQ"`
	Gamma        float64   `yaml:"Gamma"`
	MRefInSmooth bool      `yaml:"MRefInSmooth"`
	CellWeights  []float64 `yaml:"CellWeights"`
	RefModel     []float64 `yaml:"RefModel"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Family\n", ip.Family)
	fmt.Printf("[%d,%d,%d]\t\t= Cells per axis\n", len(ip.Hx), len(ip.Hy), len(ip.Hz))
	fmt.Printf("%8.5f\t\t= AlphaS\n", ip.AlphaS)
	fmt.Printf("%8.5f\t\t= AlphaX\n", ip.AlphaX)
	if len(ip.Hy) != 0 {
		fmt.Printf("%8.5f\t\t= AlphaY\n", ip.AlphaY)
	}
	if len(ip.Hz) != 0 {
		fmt.Printf("%8.5f\t\t= AlphaZ\n", ip.AlphaZ)
	}
	if ip.Family == "sparse" {
		fmt.Printf("%v\t= Norms\n", ip.Norms)
		fmt.Printf("%8.5f\t\t= EpsP\n", ip.EpsP)
		fmt.Printf("%8.5f\t\t= EpsQ\n", ip.EpsQ)
		fmt.Printf("%8.5f\t\t= Gamma\n", ip.Gamma)
	}
}
