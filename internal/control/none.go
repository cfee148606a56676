package control

import "github.com/san-kum/cycledyn/internal/dynamo"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{0}
}

type Constant struct {
	Watts float64
}

func NewConstant(watts float64) *Constant {
	return &Constant{Watts: watts}
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{c.Watts}
}
