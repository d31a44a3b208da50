package cbow

import "math"

// adam holds the first and second moment estimates for one parameter block,
// following Kingma & Ba. All blocks of a model share a single timestep,
// advanced once per epoch by the train loop.
type adam struct {
	m []float64
	v []float64
}

func newAdam(size int) *adam {
	return &adam{m: make([]float64, size), v: make([]float64, size)}
}

// step applies one bias-corrected Adam update to params in place. t is the
// 1-based shared timestep.
func (a *adam) step(params, grads []float64, lr, beta1, beta2, eps float64, t int) {
	c1 := 1 - math.Pow(beta1, float64(t))
	c2 := 1 - math.Pow(beta2, float64(t))
	for i := range params {
		g := grads[i]
		a.m[i] = beta1*a.m[i] + (1-beta1)*g
		a.v[i] = beta2*a.v[i] + (1-beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		params[i] -= lr * mHat / (math.Sqrt(vHat) + eps)
	}
}
