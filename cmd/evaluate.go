/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/goinv/InputParameters"
	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/regularization"
	"github.com/notargets/goinv/utils"
)

type EvalModel struct {
	ParamFile string
	ModelFile string
	Profile   bool
}

// EvaluateCmd represents the evaluate command
var EvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a composite regularization objective for a model vector",
	Long: `
Builds the regularization mesh and penalty terms from a YAML parameters file,
then reports the objective value, gradient norm and a Hessian-vector product
for the supplied model,

goinv evaluate -I params.yaml -M model.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			em  = &EvalModel{}
		)
		if em.ParamFile, err = cmd.Flags().GetString("inputParametersFile"); err != nil {
			panic(err)
		}
		if em.ModelFile, err = cmd.Flags().GetString("modelFile"); err != nil {
			panic(err)
		}
		em.Profile, _ = cmd.Flags().GetBool("profile")
		if em.Profile {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		RunEvaluate(em)
	},
}

func init() {
	rootCmd.AddCommand(EvaluateCmd)
	EvaluateCmd.Flags().StringP("inputParametersFile", "I", "", "regularization parameters in YAML format")
	EvaluateCmd.Flags().StringP("modelFile", "M", "", "model vector as a YAML float array (default: all ones)")
	EvaluateCmd.Flags().Bool("profile", false, "write a CPU profile of the evaluation")
}

func RunEvaluate(em *EvalModel) {
	ip := processEvalInput(em)
	ip.Print()

	tm := buildMesh(ip)
	cfg := regularization.TermConfig{
		Mesh:         tm,
		MRefInSmooth: ip.MRefInSmooth,
	}
	if len(ip.ActiveCells) != 0 {
		cfg.ActiveSet = ip.ActiveCells
	}
	if len(ip.CellWeights) != 0 {
		cfg.CellWeights = utils.NewVector(len(ip.CellWeights), ip.CellWeights)
	}
	if len(ip.RefModel) != 0 {
		cfg.MRef = utils.Ref(utils.NewVector(len(ip.RefModel), ip.RefModel))
	}

	obj, sp := buildObjective(ip, cfg)
	m := loadModel(em, obj.NP())
	if sp != nil {
		// IRLS path: freeze the reweighting at the supplied model
		sp.SetModel(m)
	}

	val := obj.Value(m)
	grad := obj.Gradient(m)
	Hv := obj.HessianMulVec(m, utils.NewVectorConst(obj.NP(), 1))
	fmt.Printf("%8d\t\t= nP\n", obj.NP())
	fmt.Printf("%12.6e\t= value\n", val)
	fmt.Printf("%12.6e\t= |gradient|\n", grad.Norm())
	fmt.Printf("%12.6e\t= |H*1|\n", Hv.Norm())
}

func processEvalInput(em *EvalModel) (ip *InputParameters.InputParameters) {
	if len(em.ParamFile) == 0 {
		err := fmt.Errorf("must supply a parameters file (-I, --inputParametersFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Test Inversion"
Family: sparse
Hx: [1, 1, 1, 1, 1]
AlphaS: 1.
AlphaX: 1.
Norms: [0, 2, 2, 2]
EpsP: 0.1
EpsQ: 0.1
Gamma: 1.
########################################
`
		fmt.Printf("Example parameters file contents:%s", exampleFile)
		os.Exit(1)
	}
	data, err := os.ReadFile(em.ParamFile)
	if err != nil {
		fmt.Printf("error reading parameters file: %s\n", err.Error())
		os.Exit(1)
	}
	ip = &InputParameters.InputParameters{
		AlphaS: 1, AlphaX: 1, AlphaY: 1, AlphaZ: 1,
		EpsP: 0.1, EpsQ: 0.1, Gamma: 1,
	}
	if err = ip.Parse(data); err != nil {
		fmt.Printf("error parsing parameters file: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func buildMesh(ip *InputParameters.InputParameters) *mesh.TensorMesh {
	switch {
	case len(ip.Hx) == 0:
		fmt.Printf("error: parameters file must supply Hx cell widths\n")
		os.Exit(1)
		return nil
	case len(ip.Hz) != 0:
		return mesh.NewTensorMesh(ip.Hx, ip.Hy, ip.Hz)
	case len(ip.Hy) != 0:
		return mesh.NewTensorMesh(ip.Hx, ip.Hy)
	default:
		return mesh.NewTensorMesh(ip.Hx)
	}
}

func buildObjective(ip *InputParameters.InputParameters,
	cfg regularization.TermConfig) (regularization.Term, *regularization.Sparse) {
	a := regularization.Alphas{
		S: ip.AlphaS, X: ip.AlphaX, Y: ip.AlphaY, Z: ip.AlphaZ,
		XX: ip.AlphaXX, YY: ip.AlphaYY, ZZ: ip.AlphaZZ,
	}
	var (
		obj regularization.Term
		sp  *regularization.Sparse
		err error
	)
	switch ip.Family {
	case "", "tikhonov":
		obj, err = regularization.NewTikhonov(cfg, a)
	case "simple":
		obj, err = regularization.NewSimple(cfg, a)
	case "sparse":
		sc := regularization.SparseConfig{
			Norms: [4]float64{0, 2, 2, 2},
			EpsP:  ip.EpsP,
			EpsQ:  ip.EpsQ,
			Gamma: ip.Gamma,
		}
		for i, p := range ip.Norms {
			if i < 4 {
				sc.Norms[i] = p
			}
		}
		sp, err = regularization.NewSparse(cfg, sc, a)
		if sp != nil {
			obj = sp
		}
	default:
		err = fmt.Errorf("unknown regularization family: %s", ip.Family)
	}
	if err != nil {
		fmt.Printf("error building objective: %s\n", err.Error())
		os.Exit(1)
	}
	return obj, sp
}

func loadModel(em *EvalModel, nP int) utils.Vector {
	if len(em.ModelFile) == 0 {
		return utils.NewVectorConst(nP, 1)
	}
	data, err := os.ReadFile(em.ModelFile)
	if err != nil {
		fmt.Printf("error reading model file: %s\n", err.Error())
		os.Exit(1)
	}
	var m []float64
	if err = yaml.Unmarshal(data, &m); err != nil {
		fmt.Printf("error parsing model file: %s\n", err.Error())
		os.Exit(1)
	}
	if len(m) != nP {
		fmt.Printf("error: model has %d entries, objective expects %d\n", len(m), nP)
		os.Exit(1)
	}
	return utils.NewVector(nP, m)
}
